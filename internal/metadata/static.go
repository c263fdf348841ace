package metadata

import (
	"context"
	"fmt"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

// Static is an immutable in-memory resource set.
type Static struct {
	resources map[string]*Resource
}

// NewStatic checks the declarations and builds a resource set.
//
// Every resource needs a name, names must be unique, keys must name
// declared properties, and an entity set (a resource with neither a base
// nor the complex flag) must declare at least one key. Base and navigation
// targets must name resources in the set.
func NewStatic(resources ...*Resource) (*Static, error) {
	s := &Static{resources: make(map[string]*Resource, len(resources))}
	for _, r := range resources {
		if r == nil || r.Name == "" {
			return nil, &SchemaError{Field: "name", Message: "resource name is required"}
		}
		if _, dup := s.resources[r.Name]; dup {
			return nil, &SchemaError{Resource: r.Name, Message: "duplicate resource"}
		}
		s.resources[r.Name] = r
	}

	for _, name := range ir.SortedKeys(s.resources) {
		if err := s.check(s.resources[name]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustStatic is like NewStatic but panics on error.
// Use only in tests or with constant declarations.
func MustStatic(resources ...*Resource) *Static {
	s, err := NewStatic(resources...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Static) check(r *Resource) error {
	seen := make(map[string]bool)
	for _, p := range r.Properties {
		if p.Name == "" {
			return &SchemaError{Resource: r.Name, Field: "properties", Message: "property name is required"}
		}
		if seen[p.Name] {
			return &SchemaError{Resource: r.Name, Field: p.Name, Message: "duplicate member"}
		}
		seen[p.Name] = true
	}
	for _, n := range r.Navigations {
		if seen[n.Name] {
			return &SchemaError{Resource: r.Name, Field: n.Name, Message: "duplicate member"}
		}
		seen[n.Name] = true
		if _, ok := s.resources[n.Target]; !ok {
			return &SchemaError{Resource: r.Name, Field: n.Name,
				Message: fmt.Sprintf("navigation target %q is not declared", n.Target)}
		}
	}

	if r.Base != "" {
		if _, ok := s.resources[r.Base]; !ok {
			return &SchemaError{Resource: r.Name, Field: "base",
				Message: fmt.Sprintf("base resource %q is not declared", r.Base)}
		}
	} else if !r.Complex && len(r.Keys) == 0 {
		return &SchemaError{Resource: r.Name, Field: "keys", Message: "at least one key property is required"}
	}
	if r.Complex && len(r.Keys) > 0 {
		return &SchemaError{Resource: r.Name, Field: "keys", Message: "complex types have no keys"}
	}

	for _, k := range r.Keys {
		if !s.declares(r, k) {
			return &SchemaError{Resource: r.Name, Field: "keys",
				Message: fmt.Sprintf("key property %q is not declared", k)}
		}
	}
	return nil
}

// declares reports whether r or one of its bases declares property name.
func (s *Static) declares(r *Resource, name string) bool {
	for depth := 0; r != nil && depth <= len(s.resources); depth++ {
		if _, ok := r.Property(name); ok {
			return true
		}
		r = s.resources[r.Base]
	}
	return false
}

// Resolve returns the resource called name.
func (s *Static) Resolve(_ context.Context, name string) (*Resource, error) {
	r, ok := s.resources[name]
	if !ok {
		return nil, odataerr.ResourceNotFound(name)
	}
	return r, nil
}

// Names returns every resource name in sorted order.
func (s *Static) Names() []string {
	return ir.SortedKeys(s.resources)
}

// Len returns the number of resources.
func (s *Static) Len() int {
	return len(s.resources)
}
