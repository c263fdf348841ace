// Package filter renders predicate trees as $filter expression text.
//
// Property references are validated against resource metadata while the
// tree is rendered, so a misspelled name fails here with UNKNOWN_PROPERTY
// rather than when the predicate was built.
package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// Translator renders predicates for one service.
//
// A Translator holds no mutable state and is safe for concurrent use; the
// resolver it wraps must be as well.
type Translator struct {
	resolver metadata.Resolver
	protocol ir.Protocol
}

// Option configures a Translator.
type Option func(*Translator)

// WithProtocol selects the literal and function dialect (default 4.0).
func WithProtocol(p ir.Protocol) Option {
	return func(t *Translator) {
		t.protocol = p
	}
}

// New creates a Translator resolving navigation targets through resolver.
func New(resolver metadata.Resolver, opts ...Option) *Translator {
	t := &Translator{resolver: resolver}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Protocol returns the configured protocol version.
func (t *Translator) Protocol() ir.Protocol {
	return t.protocol
}

// TranslateFor resolves resource (with its base chain) and renders n
// against it.
func (t *Translator) TranslateFor(ctx context.Context, resource string, n predicate.Node) (string, error) {
	h, err := metadata.ResolveHierarchy(ctx, t.resolver, resource)
	if err != nil {
		return "", err
	}
	return t.Translate(ctx, h.Resource, n)
}

// Translate renders n against resource. resource should be the merged view
// of a derived type (see metadata.ResolveHierarchy) so inherited properties
// resolve.
//
// Translation is deterministic: the same tree and metadata always produce
// the same text.
func (t *Translator) Translate(ctx context.Context, resource *metadata.Resource, n predicate.Node) (string, error) {
	if resource == nil {
		return "", fmt.Errorf("translate: nil resource")
	}
	if err := predicate.Validate(n).Err(); err != nil {
		return "", odataerr.WithResource(err, resource.Name)
	}

	tr := &translation{
		t:      t,
		ctx:    ctx,
		scopes: []scope{{resource: resource}},
		cache:  map[string]*metadata.Resource{resource.Name: resource},
	}
	text, _, err := tr.node(n)
	if err != nil {
		return "", odataerr.WithResource(err, resource.Name)
	}
	return text, nil
}

// scope is the resource property references resolve against: the root
// resource, or the element of a quantified collection.
type scope struct {
	variable string             // "" for the root scope
	resource *metadata.Resource // nil for a primitive element
	elemType string             // element type when resource is nil
}

// translation holds the state of one Translate call.
type translation struct {
	t      *Translator
	ctx    context.Context
	scopes []scope
	cache  map[string]*metadata.Resource
}

// node renders any node and returns its text and Edm type ("" when
// unknown).
func (tr *translation) node(n predicate.Node) (string, string, error) {
	switch node := n.(type) {
	case predicate.Comparison:
		return tr.comparison(node)
	case *predicate.Comparison:
		return tr.comparison(*node)
	case predicate.Logical:
		return tr.logical(node)
	case *predicate.Logical:
		return tr.logical(*node)
	case predicate.Quantifier:
		return tr.quantifier(node)
	case *predicate.Quantifier:
		return tr.quantifier(*node)
	case predicate.FunctionCall:
		return tr.call(node)
	case *predicate.FunctionCall:
		return tr.call(*node)
	case predicate.Arithmetic:
		return tr.arithmetic(node)
	case *predicate.Arithmetic:
		return tr.arithmetic(*node)
	case predicate.PropertyRef:
		return tr.ref(node)
	case *predicate.PropertyRef:
		return tr.ref(*node)
	case predicate.Literal:
		return tr.literal(node, "")
	case *predicate.Literal:
		return tr.literal(*node, "")
	default:
		return "", "", odataerr.Unsupported(fmt.Sprintf("%T", n), "unsupported node type %T", n)
	}
}

// operands renders a pair of operands. A literal side takes its type from
// the other side when it declares none.
func (tr *translation) operands(left, right predicate.Node) (ls, lt, rs, rt string, err error) {
	leftLit, leftIsLit := asLiteral(left)
	rightLit, rightIsLit := asLiteral(right)

	if !leftIsLit {
		if ls, lt, err = tr.operand(left); err != nil {
			return
		}
	}
	if !rightIsLit {
		if rs, rt, err = tr.operand(right); err != nil {
			return
		}
	}
	if leftIsLit {
		if ls, lt, err = tr.literal(leftLit, rt); err != nil {
			return
		}
	}
	if rightIsLit {
		if rs, rt, err = tr.literal(rightLit, lt); err != nil {
			return
		}
	}
	return
}

// operand renders a comparison or arithmetic operand, parenthesising
// compound expressions.
func (tr *translation) operand(n predicate.Node) (string, string, error) {
	text, typ, err := tr.node(n)
	if err != nil {
		return "", "", err
	}
	if e := effective(n); isCompound(e) || needsParens(e) {
		return "(" + text + ")", typ, nil
	}
	return text, typ, nil
}

func (tr *translation) comparison(c predicate.Comparison) (string, string, error) {
	ls, _, rs, _, err := tr.operands(c.Left, c.Right)
	if err != nil {
		return "", "", err
	}
	return ls + " " + string(c.Op) + " " + rs, ir.EdmBoolean, nil
}

func (tr *translation) arithmetic(a predicate.Arithmetic) (string, string, error) {
	ls, lt, rs, rt, err := tr.operands(a.Left, a.Right)
	if err != nil {
		return "", "", err
	}
	typ := lt
	if typ == "" {
		typ = rt
	}
	return ls + " " + string(a.Op) + " " + rs, typ, nil
}

// logical renders and/or/not. Operands that are themselves and/or
// expressions are always parenthesised.
func (tr *translation) logical(l predicate.Logical) (string, string, error) {
	if l.Op == predicate.NotOp {
		inner, _, err := tr.node(l.Operands[0])
		if err != nil {
			return "", "", err
		}
		return "not (" + inner + ")", ir.EdmBoolean, nil
	}

	if len(l.Operands) == 0 {
		if l.Op == predicate.AndOp {
			return "true", ir.EdmBoolean, nil
		}
		return "false", ir.EdmBoolean, nil
	}

	parts := make([]string, 0, len(l.Operands))
	for _, op := range l.Operands {
		text, _, err := tr.node(op)
		if err != nil {
			return "", "", err
		}
		if len(l.Operands) > 1 && needsParens(op) {
			text = "(" + text + ")"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "+string(l.Op)+" "), ir.EdmBoolean, nil
}

func (tr *translation) quantifier(q predicate.Quantifier) (string, string, error) {
	navText, target, elemType, err := tr.resolve(q.Navigation)
	if err != nil {
		return "", "", err
	}

	variable := q.Var
	if variable == "" {
		variable = predicate.BoundVar(len(tr.scopes))
	}
	for _, s := range tr.scopes {
		if s.variable == variable {
			return "", "", odataerr.Unsupported(string(q.Kind),
				"lambda variable %q shadows an enclosing variable", variable)
		}
	}

	tr.scopes = append(tr.scopes, scope{variable: variable, resource: target, elemType: elemType})
	body, _, err := tr.node(q.Body)
	tr.scopes = tr.scopes[:len(tr.scopes)-1]
	if err != nil {
		return "", "", err
	}

	return navText + "/" + string(q.Kind) + "(" + variable + ":" + body + ")", ir.EdmBoolean, nil
}

func (tr *translation) call(c predicate.FunctionCall) (string, string, error) {
	c = predicate.NormalizeCall(c)
	fn, ok := predicate.LookupFunction(c.Name)
	if !ok {
		return "", "", odataerr.Unsupported(c.Name, "unsupported function %q", c.Name)
	}

	name := fn.Name
	args := c.Args
	if tr.t.protocol == ir.V3 {
		if fn.V4Only {
			return "", "", odataerr.Unsupported(fn.Name, "%s requires protocol 4.0", fn.Name)
		}
		if fn.V3 != "" {
			name = fn.V3
		}
		if fn.Swapped && len(args) == 2 {
			args = []predicate.Node{args[1], args[0]}
		}
	}

	// Non-literal arguments render first; literal arguments then borrow the
	// type of the first of them.
	parts := make([]string, len(args))
	var hint string
	for i, arg := range args {
		if _, isLit := asLiteral(arg); isLit {
			continue
		}
		text, typ, err := tr.node(arg)
		if err != nil {
			return "", "", err
		}
		parts[i] = text
		if hint == "" {
			hint = typ
		}
	}
	for i, arg := range args {
		lit, isLit := asLiteral(arg)
		if !isLit {
			continue
		}
		text, _, err := tr.literal(lit, hint)
		if err != nil {
			return "", "", err
		}
		parts[i] = text
	}
	return name + "(" + strings.Join(parts, ",") + ")", fn.Result, nil
}

// literal renders a literal. An explicit DeclaredType must succeed; an
// inferred hint falls back to the value's own kind when the value cannot be
// coerced to it.
func (tr *translation) literal(l predicate.Literal, hint string) (string, string, error) {
	if l.DeclaredType != "" {
		text, err := ir.Format(l.Value, l.DeclaredType, tr.t.protocol)
		return text, l.DeclaredType, err
	}
	if hint != "" {
		if _, isColl := metadata.CollectionElement(hint); !isColl {
			if text, err := ir.Format(l.Value, hint, tr.t.protocol); err == nil {
				return text, hint, nil
			}
		}
	}
	text, err := ir.Format(l.Value, "", tr.t.protocol)
	return text, "", err
}

func (tr *translation) ref(r predicate.PropertyRef) (string, string, error) {
	text, _, typ, err := tr.resolve(r)
	return text, typ, err
}

// resolve renders a property path and validates each segment. It returns
// the text, the resource the path ends on (nil for structural properties)
// and the Edm type of the last segment (the element type for collections).
func (tr *translation) resolve(r predicate.PropertyRef) (string, *metadata.Resource, string, error) {
	s, prefix, err := tr.scopeFor(r.Var)
	if err != nil {
		return "", nil, "", err
	}

	if len(r.Path) == 0 {
		if prefix == "" {
			return "", nil, "", odataerr.Unsupported("property", "empty property path")
		}
		return prefix, s.resource, s.elemType, nil
	}

	segments := make([]string, 0, len(r.Path)+1)
	if prefix != "" {
		segments = append(segments, prefix)
	}

	current := s.resource
	owner := s.elemType
	var typ string
	for i, seg := range r.Path {
		if current == nil {
			return "", nil, "", odataerr.UnknownProperty(owner, seg)
		}
		last := i == len(r.Path)-1

		if p, ok := current.Property(seg); ok {
			segments = append(segments, seg)
			elem, _ := metadata.CollectionElement(p.Type)
			typ = elem
			owner = elem
			current = nil
			if !last || !isEdm(elem) {
				if res, err := tr.lookup(elem); err == nil {
					current = res
				} else if !odataerr.IsResourceNotFound(err) {
					return "", nil, "", err
				}
			}
			continue
		}

		if n, ok := current.Navigation(seg); ok {
			segments = append(segments, seg)
			target, err := tr.lookup(n.Target)
			if err != nil {
				return "", nil, "", err
			}
			current = target
			owner = n.Target
			typ = ""
			continue
		}

		return "", nil, "", odataerr.UnknownProperty(current.Name, seg)
	}

	return strings.Join(segments, "/"), current, typ, nil
}

// scopeFor picks the scope a reference resolves in and the variable prefix
// its text starts with.
func (tr *translation) scopeFor(variable string) (scope, string, error) {
	innermost := tr.scopes[len(tr.scopes)-1]
	switch variable {
	case "":
		return innermost, innermost.variable, nil
	case predicate.RootVar:
		if len(tr.scopes) == 1 {
			return tr.scopes[0], "", nil
		}
		return tr.scopes[0], predicate.RootVar, nil
	}
	for i := len(tr.scopes) - 1; i > 0; i-- {
		if tr.scopes[i].variable == variable {
			return tr.scopes[i], variable, nil
		}
	}
	return scope{}, "", odataerr.Unsupported(variable, "variable %q is not in scope", variable)
}

// lookup resolves a resource by name (merged with its bases), caching the
// result for the rest of the translation.
func (tr *translation) lookup(name string) (*metadata.Resource, error) {
	if r, ok := tr.cache[name]; ok {
		return r, nil
	}
	h, err := metadata.ResolveHierarchy(tr.ctx, tr.t.resolver, name)
	if err != nil {
		return nil, err
	}
	tr.cache[name] = h.Resource
	return h.Resource, nil
}

func isEdm(typeName string) bool {
	return strings.HasPrefix(typeName, "Edm.")
}

// unwrap returns the value form of a node.
func unwrap(n predicate.Node) predicate.Node {
	switch node := n.(type) {
	case *predicate.Comparison:
		return *node
	case *predicate.Logical:
		return *node
	case *predicate.Quantifier:
		return *node
	case *predicate.FunctionCall:
		return *node
	case *predicate.Arithmetic:
		return *node
	case *predicate.PropertyRef:
		return *node
	case *predicate.Literal:
		return *node
	}
	return n
}

func asLiteral(n predicate.Node) (predicate.Literal, bool) {
	lit, ok := unwrap(n).(predicate.Literal)
	return lit, ok
}

// effective strips single-operand and/or wrappers, which render as their
// operand.
func effective(n predicate.Node) predicate.Node {
	for {
		l, ok := unwrap(n).(predicate.Logical)
		if !ok || l.Op == predicate.NotOp || len(l.Operands) != 1 {
			return n
		}
		n = l.Operands[0]
	}
}

// needsParens reports whether n renders as a bare and/or chain.
func needsParens(n predicate.Node) bool {
	l, ok := unwrap(effective(n)).(predicate.Logical)
	return ok && l.Op != predicate.NotOp && len(l.Operands) > 1
}

func isCompound(n predicate.Node) bool {
	switch unwrap(n).(type) {
	case predicate.Comparison, predicate.Arithmetic:
		return true
	}
	return false
}
