// Package command builds command text: the resource path, key segment and
// query options of a request, relative to the service root.
//
// Building is pure apart from metadata lookups. The only shared input is
// the metadata.Resolver, so a Builder may be used from any number of
// goroutines as long as its resolver allows concurrent reads.
package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/filter"
	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/keys"
	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// Builder turns descriptors into command text.
type Builder struct {
	resolver   metadata.Resolver
	protocol   ir.Protocol
	translator *filter.Translator
}

// Option configures a Builder.
type Option func(*Builder)

// WithProtocol selects the protocol version (default 4.0).
func WithProtocol(p ir.Protocol) Option {
	return func(b *Builder) {
		b.protocol = p
	}
}

// NewBuilder creates a Builder resolving resources through resolver.
func NewBuilder(resolver metadata.Resolver, opts ...Option) *Builder {
	b := &Builder{resolver: resolver}
	for _, opt := range opts {
		opt(b)
	}
	b.translator = filter.New(resolver, filter.WithProtocol(b.protocol))
	return b
}

// Protocol returns the configured protocol version.
func (b *Builder) Protocol() ir.Protocol {
	return b.protocol
}

// Translator returns the filter translator the builder uses.
func (b *Builder) Translator() *filter.Translator {
	return b.translator
}

// Build validates d against metadata and renders it.
//
// The path is the entity set, then the derived-type segment, key segment,
// navigation segments and function segment. Query options follow in a
// fixed order: $filter, $select, $expand, $orderby, $skip, $top, $count,
// then d.Params in caller order.
//
// Errors from the resolver, including RESOURCE_NOT_FOUND, are returned
// unchanged.
func (b *Builder) Build(ctx context.Context, d Descriptor) (Text, error) {
	op := d.Operation
	if op == "" {
		op = Get
	}
	if _, err := ParseOperation(string(op)); err != nil {
		return Text{}, odataerr.InvalidCommand(d.Resource, "%v", err)
	}

	if err := checkShape(d, op); err != nil {
		return Text{}, err
	}

	h, err := b.hierarchy(ctx, d)
	if err != nil {
		return Text{}, err
	}

	segments := []string{h.Root().Name}
	if h.Derived() {
		segments = append(segments, h.Leaf().Segment())
	}

	if !d.Key.IsZero() {
		seg, err := keys.Render(h.Resource, d.Key, b.protocol)
		if err != nil {
			return Text{}, err
		}
		segments[len(segments)-1] += seg
	}

	current := h.Resource
	for _, name := range d.Navigate {
		nav, ok := current.Navigation(name)
		if !ok {
			return Text{}, odataerr.UnknownProperty(current.Name, name)
		}
		target, err := metadata.ResolveHierarchy(ctx, b.resolver, nav.Target)
		if err != nil {
			return Text{}, err
		}
		segments = append(segments, name)
		current = target.Resource
	}

	if d.Function != "" {
		seg, err := b.function(d)
		if err != nil {
			return Text{}, err
		}
		segments = append(segments, seg)
	}

	params, err := b.options(ctx, current, d)
	if err != nil {
		return Text{}, err
	}

	if err := checkBody(current, d.Body); err != nil {
		return Text{}, err
	}

	return Text{Segments: segments, Params: params}, nil
}

// BuildString is Build returning the unescaped text.
func (b *Builder) BuildString(ctx context.Context, d Descriptor) (string, error) {
	t, err := b.Build(ctx, d)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// checkShape rejects descriptors that contradict themselves before any
// metadata is consulted.
func checkShape(d Descriptor, op Operation) error {
	if d.Resource == "" {
		return odataerr.InvalidCommand("", "command has no resource")
	}
	if d.Filter != nil && d.RawFilter != "" {
		return odataerr.InvalidCommand(d.Resource, "filter given both as a predicate and as text")
	}
	hasFilter := d.Filter != nil || d.RawFilter != ""
	if !d.Key.IsZero() && hasFilter && len(d.Navigate) == 0 {
		return odataerr.AmbiguousAddressing(d.Resource)
	}
	if d.Skip != nil && *d.Skip < 0 {
		return odataerr.InvalidCommand(d.Resource, "negative skip %d", *d.Skip)
	}
	if d.Top != nil && *d.Top < 0 {
		return odataerr.InvalidCommand(d.Resource, "negative top %d", *d.Top)
	}

	switch op {
	case Insert:
		if !d.Key.IsZero() {
			return odataerr.InvalidCommand(d.Resource, "insert cannot address a key")
		}
		if hasFilter || hasQueryOptions(d) {
			return odataerr.InvalidCommand(d.Resource, "insert takes no query options")
		}
	case Update, Delete:
		if d.Key.IsZero() {
			return odataerr.InvalidCommand(d.Resource, "%s requires a key", op)
		}
	}
	if d.Body != nil && op != Insert && op != Update {
		return odataerr.InvalidCommand(d.Resource, "%s takes no body", op)
	}
	return nil
}

func hasQueryOptions(d Descriptor) bool {
	return len(d.Select) > 0 || len(d.Expand) > 0 || len(d.OrderBy) > 0 ||
		d.Skip != nil || d.Top != nil || d.Count
}

// hierarchy resolves the addressed resource and, for Derived, checks that
// it descends from Resource.
func (b *Builder) hierarchy(ctx context.Context, d Descriptor) (metadata.Hierarchy, error) {
	if d.Derived == "" {
		return metadata.ResolveHierarchy(ctx, b.resolver, d.Resource)
	}
	h, err := metadata.ResolveHierarchy(ctx, b.resolver, d.Derived)
	if err != nil {
		return metadata.Hierarchy{}, err
	}
	for _, r := range h.Chain[:len(h.Chain)-1] {
		if r.Name == d.Resource {
			return h, nil
		}
	}
	return metadata.Hierarchy{}, odataerr.InvalidCommand(d.Resource,
		"%s does not derive from %s", d.Derived, d.Resource)
}

func (b *Builder) function(d Descriptor) (string, error) {
	parts := make([]string, len(d.FunctionArgs))
	for i, arg := range d.FunctionArgs {
		if arg.Value == nil {
			return "", odataerr.InvalidCommand(d.Resource, "function argument %s has no value", arg.Name)
		}
		lit, err := ir.Format(arg.Value, "", b.protocol)
		if err != nil {
			return "", err
		}
		parts[i] = arg.Name + "=" + lit
	}
	return d.Function + "(" + strings.Join(parts, ",") + ")", nil
}

func (b *Builder) options(ctx context.Context, r *metadata.Resource, d Descriptor) ([]Param, error) {
	var params []Param

	switch {
	case d.Filter != nil:
		text, err := b.translator.Translate(ctx, r, d.Filter)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: "$filter", Value: text})
	case d.RawFilter != "":
		params = append(params, Param{Name: "$filter", Value: d.RawFilter})
	}

	if len(d.Select) > 0 {
		list, err := b.paths(ctx, r, d.Select, true)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: "$select", Value: strings.Join(list, ",")})
	}

	if len(d.Expand) > 0 {
		list, err := b.paths(ctx, r, d.Expand, false)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: "$expand", Value: strings.Join(list, ",")})
	}

	if len(d.OrderBy) > 0 {
		clauses := make([]string, len(d.OrderBy))
		for i, o := range d.OrderBy {
			list, err := b.paths(ctx, r, []string{o.Property}, false)
			if err != nil {
				return nil, err
			}
			clauses[i] = list[0]
			if o.Descending {
				clauses[i] += " desc"
			}
		}
		params = append(params, Param{Name: "$orderby", Value: strings.Join(clauses, ",")})
	}

	if d.Skip != nil {
		params = append(params, Param{Name: "$skip", Value: strconv.Itoa(*d.Skip)})
	}
	if d.Top != nil {
		params = append(params, Param{Name: "$top", Value: strconv.Itoa(*d.Top)})
	}
	if d.Count {
		if b.protocol == ir.V3 {
			params = append(params, Param{Name: "$inlinecount", Value: "allpages"})
		} else {
			params = append(params, Param{Name: "$count", Value: "true"})
		}
	}

	for _, p := range d.Params {
		if p.Name == "" {
			return nil, odataerr.InvalidCommand(d.Resource, "query option without a name")
		}
		params = append(params, p)
	}
	return params, nil
}

// paths validates property paths against r and renders them. "*" selects
// every property when wildcard is set.
func (b *Builder) paths(ctx context.Context, r *metadata.Resource, paths []string, wildcard bool) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if wildcard && p == "*" {
			out = append(out, p)
			continue
		}
		text, err := b.translator.Translate(ctx, r, predicate.Prop(strings.Split(p, "/")...))
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

// checkBody rejects payload members the resource does not declare.
// Annotations (names containing "@") pass through.
func checkBody(r *metadata.Resource, body map[string]any) error {
	for _, name := range ir.SortedKeys(body) {
		if strings.Contains(name, "@") {
			continue
		}
		if !r.HasMember(name) {
			return odataerr.UnknownProperty(r.Name, name)
		}
	}
	return nil
}
