package typed

import (
	"reflect"

	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// NavRef addresses a single-valued member of T whose Go type is M: a
// navigation property or a complex property.
type NavRef[T, M any] struct {
	path []string
	err  error
}

// Nav returns the single-valued member name of T.
func Nav[T, M any](name string) NavRef[T, M] {
	m, err := typedMember(reflect.TypeFor[T](), name, reflect.TypeFor[M]())
	if err != nil {
		return NavRef[T, M]{err: err}
	}
	return NavRef[T, M]{path: []string{m.name}}
}

// Then follows the single-valued member name of M.
func Then[T, M, N any](n NavRef[T, M], name string) NavRef[T, N] {
	if n.err != nil {
		return NavRef[T, N]{err: n.err}
	}
	m, err := typedMember(reflect.TypeFor[M](), name, reflect.TypeFor[N]())
	if err != nil {
		return NavRef[T, N]{err: err}
	}
	return NavRef[T, N]{path: appendPath(n.path, m.name)}
}

// Field returns property name of M, reached through n, as an operand of T.
func Field[T, M, V any](n NavRef[T, M], name string) Operand[T, V] {
	if n.err != nil {
		return Operand[T, V]{err: n.err}
	}
	m, err := typedMember(reflect.TypeFor[M](), name, reflect.TypeFor[V]())
	if err != nil {
		return Operand[T, V]{err: err}
	}
	return Operand[T, V]{node: predicate.Prop(appendPath(n.path, m.name)...)}
}

// IsNull tests the member against null.
func (n NavRef[T, M]) IsNull() Expr[T] {
	if n.err != nil {
		return failed[T](n.err)
	}
	return Operand[T, M]{node: predicate.Prop(n.path...)}.IsNull()
}

// CollectionRef addresses a collection-valued member of T with elements
// of Go type E.
type CollectionRef[T, E any] struct {
	ref predicate.PropertyRef
	err error
}

// Collection returns the collection-valued member name of T.
func Collection[T, E any](name string) CollectionRef[T, E] {
	m, err := collectionMember(reflect.TypeFor[T](), name, reflect.TypeFor[E]())
	if err != nil {
		return CollectionRef[T, E]{err: err}
	}
	return CollectionRef[T, E]{ref: predicate.Prop(m.name)}
}

// CollectionOf returns the collection-valued member name of M, reached
// through n.
func CollectionOf[T, M, E any](n NavRef[T, M], name string) CollectionRef[T, E] {
	if n.err != nil {
		return CollectionRef[T, E]{err: n.err}
	}
	m, err := collectionMember(reflect.TypeFor[M](), name, reflect.TypeFor[E]())
	if err != nil {
		return CollectionRef[T, E]{err: err}
	}
	return CollectionRef[T, E]{ref: predicate.Prop(appendPath(n.path, m.name)...)}
}

// Any holds when some element satisfies body.
func (c CollectionRef[T, E]) Any(body Expr[E]) Expr[T] {
	return c.quantify(predicate.AnyKind, body)
}

// All holds when every element satisfies body.
func (c CollectionRef[T, E]) All(body Expr[E]) Expr[T] {
	return c.quantify(predicate.AllKind, body)
}

func (c CollectionRef[T, E]) quantify(kind predicate.QuantifierKind, body Expr[E]) Expr[T] {
	if c.err != nil {
		return failed[T](c.err)
	}
	if body.err != nil {
		return failed[T](body.err)
	}
	if kind == predicate.AllKind {
		return Expr[T]{node: predicate.All(c.ref, body.node)}
	}
	return Expr[T]{node: predicate.Any(c.ref, body.node)}
}

func appendPath(path []string, name string) []string {
	out := make([]string, 0, len(path)+1)
	return append(append(out, path...), name)
}
