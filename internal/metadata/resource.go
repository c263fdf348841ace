package metadata

import (
	"context"
	"slices"
	"strings"
)

// Resolver looks up resource metadata by name.
//
// Implementations must be safe for concurrent use and must fail with an
// odataerr RESOURCE_NOT_FOUND error for unknown names.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*Resource, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, name string) (*Resource, error)

// Resolve calls f(ctx, name).
func (f ResolverFunc) Resolve(ctx context.Context, name string) (*Resource, error) {
	return f(ctx, name)
}

// Resource describes an entity set, a derived entity type or a complex
// type.
type Resource struct {
	// Name is the name the resource is resolved and addressed by.
	Name string

	// Keys lists the key property names in canonical order. Derived
	// resources inherit the keys of their base.
	Keys []string

	// Properties lists the structural properties in declaration order.
	Properties []Property

	// Navigations lists the navigation properties in declaration order.
	Navigations []Navigation

	// Base names the base resource of a derived type.
	Base string

	// Cast is the path segment that addresses this derived type under its
	// base (for example "NorthwindModel.Ship"). Empty means Name.
	Cast string

	// Complex marks a complex type: it has no keys and is only reachable
	// through a structural property.
	Complex bool
}

// Property is a structural property.
type Property struct {
	Name     string
	Type     string
	Nullable bool
}

// Navigation is a navigation property pointing at another resource.
type Navigation struct {
	Name       string
	Target     string
	Collection bool
}

// Property returns the declared structural property called name.
func (r *Resource) Property(name string) (Property, bool) {
	for _, p := range r.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Navigation returns the declared navigation property called name.
func (r *Resource) Navigation(name string) (Navigation, bool) {
	for _, n := range r.Navigations {
		if n.Name == name {
			return n, true
		}
	}
	return Navigation{}, false
}

// HasMember reports whether name is a structural or navigation property.
func (r *Resource) HasMember(name string) bool {
	if _, ok := r.Property(name); ok {
		return true
	}
	_, ok := r.Navigation(name)
	return ok
}

// Segment returns the path segment of a derived resource.
func (r *Resource) Segment() string {
	if r.Cast != "" {
		return r.Cast
	}
	return r.Name
}

// IsKey reports whether name is one of the declared key properties.
func (r *Resource) IsKey(name string) bool {
	return slices.Contains(r.Keys, name)
}

// CollectionElement returns the element type of a "Collection(T)" type
// name and true, or the name unchanged and false.
func CollectionElement(typeName string) (string, bool) {
	if strings.HasPrefix(typeName, "Collection(") && strings.HasSuffix(typeName, ")") {
		return typeName[len("Collection(") : len(typeName)-1], true
	}
	return typeName, false
}
