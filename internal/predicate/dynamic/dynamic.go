// Package dynamic builds predicates from property names given as strings,
// for callers without Go types for the service's resources.
//
//	p := dynamic.Root()
//	expr := dynamic.And(
//		p.Prop("ProductName").Eq("Chai"),
//		p.Prop("Category").Prop("CategoryName").Ne("Beverages"),
//	)
//
// Names are not checked here. A misspelled property is reported by the
// translator, against metadata, when the command is built.
package dynamic

import (
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// Expr is a boolean predicate.
type Expr struct {
	node predicate.Node
	err  error
}

func failed(err error) Expr {
	return Expr{err: err}
}

// Build returns the predicate tree, or the first error recorded while the
// expression was composed.
func (e Expr) Build() (predicate.Node, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.node == nil {
		return nil, odataerr.Unsupported("predicate", "empty predicate")
	}
	if err := predicate.Validate(e.node).Err(); err != nil {
		return nil, err
	}
	return e.node, nil
}

// Err returns the sticky error, if any.
func (e Expr) Err() error {
	return e.err
}

// And conjoins e with others.
func (e Expr) And(others ...Expr) Expr {
	return And(append([]Expr{e}, others...)...)
}

// Or disjoins e with others.
func (e Expr) Or(others ...Expr) Expr {
	return Or(append([]Expr{e}, others...)...)
}

func And(exprs ...Expr) Expr {
	nodes, err := collect(exprs)
	if err != nil {
		return failed(err)
	}
	return Expr{node: predicate.And(nodes...)}
}

func Or(exprs ...Expr) Expr {
	nodes, err := collect(exprs)
	if err != nil {
		return failed(err)
	}
	return Expr{node: predicate.Or(nodes...)}
}

func Not(e Expr) Expr {
	if e.err != nil {
		return e
	}
	return Expr{node: predicate.Not(e.node)}
}

func collect(exprs []Expr) ([]predicate.Node, error) {
	nodes := make([]predicate.Node, 0, len(exprs))
	for _, e := range exprs {
		if e.err != nil {
			return nil, e.err
		}
		nodes = append(nodes, e.node)
	}
	return nodes, nil
}

// Operand is an untyped value expression: a property path, a function
// result or arithmetic over them.
type Operand struct {
	node predicate.Node
	err  error
}

// Root returns the proxy for the resource being filtered. Inside the body
// of Any or All it stands for the current element.
func Root() Operand {
	return Operand{node: predicate.PropertyRef{}}
}

// Element is Root under the name used for quantifier bodies.
func Element() Operand {
	return Root()
}

// It returns the proxy for the root resource from inside a quantifier
// body.
func It() Operand {
	return Var(predicate.RootVar)
}

// Var returns the proxy for a named lambda variable.
func Var(name string) Operand {
	return Operand{node: predicate.PropertyRef{Var: name}}
}

// Prop appends name to the property path. A name containing "/" appends
// each of its segments.
func (o Operand) Prop(name string) Operand {
	if o.err != nil {
		return o
	}
	ref, ok := o.node.(predicate.PropertyRef)
	if !ok {
		return Operand{err: odataerr.Unsupported(name, "property %s accessed on a computed value", name)}
	}
	path := make([]string, 0, len(ref.Path)+1)
	path = append(path, ref.Path...)
	path = append(path, strings.Split(name, "/")...)
	return Operand{node: predicate.PropertyRef{Var: ref.Var, Path: path}}
}

// Err returns the sticky error, if any.
func (o Operand) Err() error {
	return o.err
}

// operand converts a comparison or argument value: an Operand, a
// predicate node, an ir value or a Go value accepted by ir.FromGo.
func operand(v any) (predicate.Node, error) {
	switch val := v.(type) {
	case Operand:
		return val.node, val.err
	case predicate.Node:
		return val, nil
	case ir.Value:
		return predicate.Lit(val), nil
	default:
		lit, err := predicate.LitOf(v)
		if err != nil {
			return nil, err
		}
		return lit, nil
	}
}

func (o Operand) compare(op predicate.CompareOp, v any) Expr {
	if o.err != nil {
		return failed(o.err)
	}
	right, err := operand(v)
	if err != nil {
		return failed(err)
	}
	return Expr{node: predicate.Compare(o.node, op, right)}
}

func (o Operand) Eq(v any) Expr { return o.compare(predicate.Eq, v) }
func (o Operand) Ne(v any) Expr { return o.compare(predicate.Ne, v) }
func (o Operand) Gt(v any) Expr { return o.compare(predicate.Gt, v) }
func (o Operand) Ge(v any) Expr { return o.compare(predicate.Ge, v) }
func (o Operand) Lt(v any) Expr { return o.compare(predicate.Lt, v) }
func (o Operand) Le(v any) Expr { return o.compare(predicate.Le, v) }

// Compare compares with an operator given by name. An operator outside
// eq ne gt ge lt le fails at Build.
func (o Operand) Compare(op string, v any) Expr {
	return o.compare(predicate.CompareOp(op), v)
}

// IsNull tests the operand against null.
func (o Operand) IsNull() Expr {
	return o.compare(predicate.Eq, ir.Null{})
}

// In tests membership in values, rendered as an or of eq comparisons.
func (o Operand) In(values ...any) Expr {
	if o.err != nil {
		return failed(o.err)
	}
	nodes := make([]predicate.Node, len(values))
	for i, v := range values {
		n, err := operand(v)
		if err != nil {
			return failed(err)
		}
		nodes[i] = n
	}
	n, err := predicate.In(o.node, nodes...)
	if err != nil {
		return failed(err)
	}
	return Expr{node: n}
}

func (o Operand) math(op predicate.ArithmeticOp, v any) Operand {
	if o.err != nil {
		return o
	}
	right, err := operand(v)
	if err != nil {
		return Operand{err: err}
	}
	return Operand{node: predicate.Math(o.node, op, right)}
}

func (o Operand) Add(v any) Operand { return o.math(predicate.Add, v) }
func (o Operand) Sub(v any) Operand { return o.math(predicate.Sub, v) }
func (o Operand) Mul(v any) Operand { return o.math(predicate.Mul, v) }
func (o Operand) Div(v any) Operand { return o.math(predicate.Div, v) }
func (o Operand) Mod(v any) Operand { return o.math(predicate.Mod, v) }

// Any holds when some element of the collection satisfies body.
func (o Operand) Any(body Expr) Expr {
	return o.quantify(predicate.AnyKind, body)
}

// All holds when every element of the collection satisfies body.
func (o Operand) All(body Expr) Expr {
	return o.quantify(predicate.AllKind, body)
}

func (o Operand) quantify(kind predicate.QuantifierKind, body Expr) Expr {
	if o.err != nil {
		return failed(o.err)
	}
	if body.err != nil {
		return failed(body.err)
	}
	ref, ok := o.node.(predicate.PropertyRef)
	if !ok {
		return failed(odataerr.Unsupported(string(kind), "%s over a computed value", kind))
	}
	if kind == predicate.AllKind {
		return Expr{node: predicate.All(ref, body.node)}
	}
	return Expr{node: predicate.Any(ref, body.node)}
}
