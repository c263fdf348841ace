package predicate

import (
	"fmt"
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

// ValidationResult contains the structural problems found in a predicate.
type ValidationResult struct {
	// IsValid is true when the tree can be rendered.
	IsValid bool

	// Problems lists each structural problem, in traversal order.
	Problems []string

	// Construct names the first offending operator or function.
	Construct string
}

// Err returns nil for a valid tree, or an UNSUPPORTED_EXPRESSION error
// listing every problem.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return odataerr.Unsupported(r.Construct, "%s", strings.Join(r.Problems, "; "))
}

// Validate checks the shape of a predicate tree: known operators, known
// functions called with a valid number of arguments, non-empty property
// paths, quantifiers with a body and exactly one operand under not.
//
// Property names are not checked here; that needs metadata and happens at
// translation time.
//
// Validate is a pure function with no side effects.
func Validate(n Node) ValidationResult {
	v := &validator{}
	v.validateNode(n, 0)

	return ValidationResult{
		IsValid:   len(v.problems) == 0,
		Problems:  v.problems,
		Construct: v.construct,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems  []string
	construct string
}

func (v *validator) addProblem(construct, format string, args ...any) {
	if v.construct == "" {
		v.construct = construct
	}
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// validateNode recursively validates a node. depth is the number of
// enclosing quantifiers.
func (v *validator) validateNode(n Node, depth int) {
	if n == nil {
		v.addProblem("nil", "nil node")
		return
	}

	switch node := n.(type) {
	case Comparison:
		v.validateComparison(node, depth)
	case *Comparison:
		v.validateComparison(*node, depth)
	case Logical:
		v.validateLogical(node, depth)
	case *Logical:
		v.validateLogical(*node, depth)
	case Quantifier:
		v.validateQuantifier(node, depth)
	case *Quantifier:
		v.validateQuantifier(*node, depth)
	case FunctionCall:
		v.validateCall(node, depth)
	case *FunctionCall:
		v.validateCall(*node, depth)
	case Arithmetic:
		v.validateArithmetic(node, depth)
	case *Arithmetic:
		v.validateArithmetic(*node, depth)
	case PropertyRef:
		v.validateRef(node, depth)
	case *PropertyRef:
		v.validateRef(*node, depth)
	case Literal:
		v.validateLiteral(node)
	case *Literal:
		v.validateLiteral(*node)
	default:
		v.addProblem(fmt.Sprintf("%T", n), "unknown node type %T", n)
	}
}

func (v *validator) validateComparison(c Comparison, depth int) {
	if !c.Op.Valid() {
		v.addProblem(string(c.Op), "unknown comparison operator %q", c.Op)
	}
	v.validateNode(c.Left, depth)
	v.validateNode(c.Right, depth)
}

func (v *validator) validateLogical(l Logical, depth int) {
	switch l.Op {
	case AndOp, OrOp:
	case NotOp:
		if len(l.Operands) != 1 {
			v.addProblem(string(l.Op), "not takes exactly one operand, got %d", len(l.Operands))
		}
	default:
		v.addProblem(string(l.Op), "unknown logical operator %q", l.Op)
	}
	for _, op := range l.Operands {
		v.validateNode(op, depth)
	}
}

func (v *validator) validateQuantifier(q Quantifier, depth int) {
	if q.Kind != AnyKind && q.Kind != AllKind {
		v.addProblem(string(q.Kind), "unknown quantifier %q", q.Kind)
	}
	if len(q.Navigation.Path) == 0 {
		v.addProblem(string(q.Kind), "quantifier has no collection property")
	}
	v.validateRef(q.Navigation, depth)
	if q.Body == nil {
		v.addProblem(string(q.Kind), "quantifier over %s has no body", strings.Join(q.Navigation.Path, "/"))
		return
	}
	v.validateNode(q.Body, depth+1)
}

func (v *validator) validateCall(c FunctionCall, depth int) {
	c = NormalizeCall(c)
	fn, ok := LookupFunction(c.Name)
	if !ok {
		v.addProblem(c.Name, "unsupported function %q", c.Name)
	} else if len(c.Args) < fn.MinArgs || len(c.Args) > fn.MaxArgs {
		v.addProblem(c.Name, "%s takes %s, got %d", fn.Name, arity(fn), len(c.Args))
	}
	for _, arg := range c.Args {
		v.validateNode(arg, depth)
	}
}

func (v *validator) validateArithmetic(a Arithmetic, depth int) {
	if !a.Op.Valid() {
		v.addProblem(string(a.Op), "unknown arithmetic operator %q", a.Op)
	}
	v.validateNode(a.Left, depth)
	v.validateNode(a.Right, depth)
}

func (v *validator) validateRef(r PropertyRef, depth int) {
	if len(r.Path) == 0 && r.Var == "" && depth == 0 {
		v.addProblem("property", "empty property path")
	}
	for _, seg := range r.Path {
		if seg == "" || strings.ContainsAny(seg, "/()',") {
			v.addProblem(seg, "invalid property name %q", seg)
		}
	}
}

func (v *validator) validateLiteral(l Literal) {
	if l.Value == nil {
		v.addProblem("literal", "literal has no value")
	}
}

func arity(fn Function) string {
	switch {
	case fn.MinArgs == fn.MaxArgs && fn.MinArgs == 1:
		return "1 argument"
	case fn.MinArgs == fn.MaxArgs:
		return fmt.Sprintf("%d arguments", fn.MinArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", fn.MinArgs, fn.MaxArgs)
	}
}
