package typed

import (
	"reflect"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// Operand is a value of Go type V computed from resource type T: a
// property, a function result or arithmetic over them.
type Operand[T, V any] struct {
	node predicate.Node
	err  error
}

// Arg is a function argument over resource type T.
type Arg[T any] interface {
	arg() (predicate.Node, error)
}

func (o Operand[T, V]) arg() (predicate.Node, error) {
	return o.node, o.err
}

// Err returns the sticky error, if any.
func (o Operand[T, V]) Err() error {
	return o.err
}

// Prop returns the property name of T as an operand of type V.
func Prop[T, V any](name string) Operand[T, V] {
	m, err := typedMember(reflect.TypeFor[T](), name, reflect.TypeFor[V]())
	if err != nil {
		return Operand[T, V]{err: err}
	}
	return Operand[T, V]{node: predicate.Prop(m.name)}
}

// Element returns the element of a primitive collection, for use in the
// body of Any and All.
func Element[E any]() Operand[E, E] {
	return Operand[E, E]{node: predicate.PropertyRef{}}
}

// It lifts a property of the root resource T into the scope of a
// quantifier body over E. It renders under the $it variable.
func It[E, T, V any](o Operand[T, V]) Operand[E, V] {
	if o.err != nil {
		return Operand[E, V]{err: o.err}
	}
	ref, ok := o.node.(predicate.PropertyRef)
	if !ok || ref.Var != "" {
		return Operand[E, V]{err: odataerr.Unsupported(predicate.RootVar, "only root properties can be lifted to $it")}
	}
	return Operand[E, V]{node: predicate.VarProp(predicate.RootVar, ref.Path...)}
}

// Value wraps a Go value as a literal function argument.
func Value[T any](v any) Arg[T] {
	return literalArg[T]{value: v}
}

type literalArg[T any] struct {
	value any
}

func (l literalArg[T]) arg() (predicate.Node, error) {
	lit, err := predicate.LitOf(l.value)
	if err != nil {
		return nil, err
	}
	return lit, nil
}

func (o Operand[T, V]) compare(op predicate.CompareOp, v V) Expr[T] {
	if o.err != nil {
		return failed[T](o.err)
	}
	lit, err := predicate.LitOf(v)
	if err != nil {
		return failed[T](err)
	}
	return Expr[T]{node: predicate.Compare(o.node, op, lit)}
}

func (o Operand[T, V]) Eq(v V) Expr[T] { return o.compare(predicate.Eq, v) }
func (o Operand[T, V]) Ne(v V) Expr[T] { return o.compare(predicate.Ne, v) }
func (o Operand[T, V]) Gt(v V) Expr[T] { return o.compare(predicate.Gt, v) }
func (o Operand[T, V]) Ge(v V) Expr[T] { return o.compare(predicate.Ge, v) }
func (o Operand[T, V]) Lt(v V) Expr[T] { return o.compare(predicate.Lt, v) }
func (o Operand[T, V]) Le(v V) Expr[T] { return o.compare(predicate.Le, v) }

// IsNull tests the operand against null.
func (o Operand[T, V]) IsNull() Expr[T] {
	if o.err != nil {
		return failed[T](o.err)
	}
	return Expr[T]{node: predicate.Compare(o.node, predicate.Eq, predicate.Lit(ir.Null{}))}
}

// In tests membership in values, rendered as an or of eq comparisons.
func (o Operand[T, V]) In(values ...V) Expr[T] {
	if o.err != nil {
		return failed[T](o.err)
	}
	lits := make([]predicate.Node, len(values))
	for i, v := range values {
		lit, err := predicate.LitOf(v)
		if err != nil {
			return failed[T](err)
		}
		lits[i] = lit
	}
	n, err := predicate.In(o.node, lits...)
	if err != nil {
		return failed[T](err)
	}
	return Expr[T]{node: n}
}

// Compare compares two operands of the same type. An operator outside
// eq ne gt ge lt le fails at Build.
func Compare[T, V any](left Operand[T, V], op predicate.CompareOp, right Operand[T, V]) Expr[T] {
	if left.err != nil {
		return failed[T](left.err)
	}
	if right.err != nil {
		return failed[T](right.err)
	}
	return Expr[T]{node: predicate.Compare(left.node, op, right.node)}
}

func (o Operand[T, V]) math(op predicate.ArithmeticOp, v V) Operand[T, V] {
	if o.err != nil {
		return o
	}
	lit, err := predicate.LitOf(v)
	if err != nil {
		return Operand[T, V]{err: err}
	}
	return Operand[T, V]{node: predicate.Math(o.node, op, lit)}
}

func (o Operand[T, V]) Add(v V) Operand[T, V] { return o.math(predicate.Add, v) }
func (o Operand[T, V]) Sub(v V) Operand[T, V] { return o.math(predicate.Sub, v) }
func (o Operand[T, V]) Mul(v V) Operand[T, V] { return o.math(predicate.Mul, v) }
func (o Operand[T, V]) Div(v V) Operand[T, V] { return o.math(predicate.Div, v) }
func (o Operand[T, V]) Mod(v V) Operand[T, V] { return o.math(predicate.Mod, v) }
