package typed

import (
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// Expr is a boolean predicate over resource type T.
type Expr[T any] struct {
	node predicate.Node
	err  error
}

func failed[T any](err error) Expr[T] {
	return Expr[T]{err: err}
}

// Build returns the predicate tree, or the first error recorded while the
// expression was composed.
func (e Expr[T]) Build() (predicate.Node, error) {
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
func (e Expr[T]) Err() error {
	return e.err
}

// And conjoins e with others.
func (e Expr[T]) And(others ...Expr[T]) Expr[T] {
	return And(append([]Expr[T]{e}, others...)...)
}

// Or disjoins e with others.
func (e Expr[T]) Or(others ...Expr[T]) Expr[T] {
	return Or(append([]Expr[T]{e}, others...)...)
}

// And conjoins exprs.
func And[T any](exprs ...Expr[T]) Expr[T] {
	nodes, err := collect(exprs)
	if err != nil {
		return failed[T](err)
	}
	return Expr[T]{node: predicate.And(nodes...)}
}

// Or disjoins exprs.
func Or[T any](exprs ...Expr[T]) Expr[T] {
	nodes, err := collect(exprs)
	if err != nil {
		return failed[T](err)
	}
	return Expr[T]{node: predicate.Or(nodes...)}
}

// Not negates e.
func Not[T any](e Expr[T]) Expr[T] {
	if e.err != nil {
		return e
	}
	return Expr[T]{node: predicate.Not(e.node)}
}

func collect[T any](exprs []Expr[T]) ([]predicate.Node, error) {
	nodes := make([]predicate.Node, 0, len(exprs))
	for _, e := range exprs {
		if e.err != nil {
			return nil, e.err
		}
		nodes = append(nodes, e.node)
	}
	return nodes, nil
}
