package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

// Hierarchy is a resource together with its base chain.
type Hierarchy struct {
	// Resource is the merged view: keys of the root, and the properties and
	// navigations of every level with the base's members first.
	Resource *Resource

	// Chain runs from the root entity set to the requested resource.
	Chain []*Resource
}

// Root returns the root of the chain.
func (h Hierarchy) Root() *Resource {
	return h.Chain[0]
}

// Leaf returns the requested resource as declared.
func (h Hierarchy) Leaf() *Resource {
	return h.Chain[len(h.Chain)-1]
}

// Derived reports whether the requested resource has a base.
func (h Hierarchy) Derived() bool {
	return len(h.Chain) > 1
}

// Path returns the resource path: the root name, then the cast segment of
// the requested type when it is derived (Transport/Ships).
func (h Hierarchy) Path() string {
	if !h.Derived() {
		return h.Root().Name
	}
	return h.Root().Name + "/" + h.Leaf().Segment()
}

// ResolveHierarchy resolves name and walks its base chain.
func ResolveHierarchy(ctx context.Context, resolver Resolver, name string) (Hierarchy, error) {
	var chain []*Resource
	seen := make(map[string]bool)

	for current := name; current != ""; {
		if seen[current] {
			return Hierarchy{}, odataerr.InvalidCommand(name,
				"inheritance cycle through %q", current)
		}
		seen[current] = true

		r, err := resolver.Resolve(ctx, current)
		if err != nil {
			return Hierarchy{}, err
		}
		chain = append(chain, r)
		current = r.Base
	}

	// chain is leaf first; flip it so the root comes first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	if len(chain) == 1 {
		return Hierarchy{Resource: chain[0], Chain: chain}, nil
	}
	return Hierarchy{Resource: merge(chain), Chain: chain}, nil
}

func merge(chain []*Resource) *Resource {
	leaf := chain[len(chain)-1]
	out := &Resource{
		Name:    leaf.Name,
		Cast:    leaf.Cast,
		Base:    leaf.Base,
		Complex: leaf.Complex,
	}
	for _, r := range chain {
		if len(out.Keys) == 0 && len(r.Keys) > 0 {
			out.Keys = append([]string(nil), r.Keys...)
		}
		out.Properties = append(out.Properties, r.Properties...)
		out.Navigations = append(out.Navigations, r.Navigations...)
	}
	return out
}

// Describe renders a one-line summary of a resource, used by the CLI.
func Describe(r *Resource) string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.Base != "" {
		fmt.Fprintf(&b, " : %s", r.Base)
	}
	if len(r.Keys) > 0 {
		fmt.Fprintf(&b, " key(%s)", strings.Join(r.Keys, ","))
	}
	fmt.Fprintf(&b, " properties=%d navigations=%d", len(r.Properties), len(r.Navigations))
	if r.Complex {
		b.WriteString(" complex")
	}
	return b.String()
}
