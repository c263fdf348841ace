// Package keys resolves caller-supplied key values against a resource's
// declared key properties and renders the key segment of a command path.
package keys

import (
	"slices"
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

// Pair is one key property and its value.
type Pair struct {
	Name  string
	Value ir.Value

	err error
}

// P converts v with ir.FromGo and pairs it with name. A value FromGo
// rejects is reported when the mapping is resolved.
func P(name string, v any) Pair {
	val, err := ir.FromGo(v)
	if err != nil {
		return Pair{Name: name, err: err}
	}
	return Pair{Name: name, Value: val}
}

// Mapping is an ordered set of key values. The zero Mapping addresses
// nothing.
type Mapping struct {
	pairs  []Pair
	single bool
}

// Of builds a mapping from named pairs.
func Of(pairs ...Pair) Mapping {
	return Mapping{pairs: slices.Clone(pairs)}
}

// Map builds a mapping from a Go map. Pairs are ordered by name, though
// the rendered order always follows the declared key order.
func Map(m map[string]any) Mapping {
	pairs := make([]Pair, 0, len(m))
	for _, name := range ir.SortedKeys(m) {
		pairs = append(pairs, P(name, m[name]))
	}
	return Mapping{pairs: pairs}
}

// Single addresses a single-key resource without naming the key.
func Single(v any) Mapping {
	return Mapping{pairs: []Pair{P("", v)}, single: true}
}

// IsZero reports whether the mapping holds no values.
func (m Mapping) IsZero() bool {
	return len(m.pairs) == 0
}

// Len returns the number of values.
func (m Mapping) Len() int {
	return len(m.pairs)
}

// Pairs returns a copy of the pairs in caller order.
func (m Mapping) Pairs() []Pair {
	return slices.Clone(m.pairs)
}

// Resolved is a key property with its rendered literal.
type Resolved struct {
	Name    string
	Literal string
}

// Resolve orders m by the declared keys of resource and renders each
// value as a literal of the key property's type.
//
// The mapping must name exactly the declared keys: a missing, undeclared
// or repeated name fails with KEY_MISMATCH before any text is produced.
func Resolve(resource *metadata.Resource, m Mapping, proto ir.Protocol) ([]Resolved, error) {
	declared := resource.Keys
	if len(declared) == 0 {
		return nil, odataerr.InvalidCommand(resource.Name, "resource %s declares no key", resource.Name)
	}

	if m.single {
		if len(declared) != 1 {
			return nil, odataerr.KeyMismatch(resource.Name, slices.Clone(declared[1:]), nil)
		}
		p := m.pairs[0]
		p.Name = declared[0]
		m = Of(p)
	}

	values := make(map[string]Pair, len(m.pairs))
	var extra []string
	for _, p := range m.pairs {
		if _, dup := values[p.Name]; dup || !resource.IsKey(p.Name) {
			extra = append(extra, p.Name)
			continue
		}
		values[p.Name] = p
	}
	var missing []string
	for _, name := range declared {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return nil, odataerr.KeyMismatch(resource.Name, missing, extra)
	}

	out := make([]Resolved, 0, len(declared))
	for _, name := range declared {
		p := values[name]
		if p.err != nil {
			return nil, odataerr.WithResource(p.err, resource.Name)
		}
		v := p.Value
		if v == nil {
			v = ir.Null{}
		}
		if _, ok := v.(ir.Null); ok {
			return nil, odataerr.InvalidCommand(resource.Name, "key property %s is null", name)
		}
		var typ string
		if p, ok := resource.Property(name); ok {
			typ = p.Type
		}
		lit, err := ir.Format(v, typ, proto)
		if err != nil {
			return nil, odataerr.WithResource(err, resource.Name)
		}
		out = append(out, Resolved{Name: name, Literal: lit})
	}
	return out, nil
}

// Segment renders resolved keys as a path key segment: (1) for a single
// key, (A=1,B=2) for a compound key.
func Segment(resolved []Resolved) string {
	if len(resolved) == 1 {
		return "(" + resolved[0].Literal + ")"
	}
	parts := make([]string, len(resolved))
	for i, r := range resolved {
		parts[i] = r.Name + "=" + r.Literal
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Render resolves m and returns its key segment.
func Render(resource *metadata.Resource, m Mapping, proto ir.Protocol) (string, error) {
	resolved, err := Resolve(resource, m, proto)
	if err != nil {
		return "", err
	}
	return Segment(resolved), nil
}
