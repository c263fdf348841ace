package predicate

import (
	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

// The constructors below are the combinator set both front-ends build on.
// Building through them keeps the trees of equivalent typed and dynamic
// predicates identical.

// Prop returns a reference to a property path in the innermost scope.
func Prop(path ...string) PropertyRef {
	return PropertyRef{Path: append([]string(nil), path...)}
}

// VarProp returns a reference to a property path under a named variable.
func VarProp(variable string, path ...string) PropertyRef {
	return PropertyRef{Var: variable, Path: append([]string(nil), path...)}
}

// Lit wraps a value as a literal with no declared type.
func Lit(v ir.Value) Literal {
	return Literal{Value: v}
}

// TypedLit wraps a value as a literal rendered as the given Edm type.
func TypedLit(v ir.Value, declared string) Literal {
	return Literal{Value: v, DeclaredType: declared}
}

// LitOf converts a Go value with ir.FromGo and wraps it as a literal.
func LitOf(v any) (Literal, error) {
	val, err := ir.FromGo(v)
	if err != nil {
		return Literal{}, err
	}
	return Literal{Value: val}, nil
}

// Compare builds a comparison.
func Compare(left Node, op CompareOp, right Node) Comparison {
	return Comparison{Left: left, Op: op, Right: right}
}

// And conjoins nodes.
func And(nodes ...Node) Logical {
	return Logical{Op: AndOp, Operands: append([]Node(nil), nodes...)}
}

// Or disjoins nodes.
func Or(nodes ...Node) Logical {
	return Logical{Op: OrOp, Operands: append([]Node(nil), nodes...)}
}

// Not negates a node.
func Not(n Node) Logical {
	return Logical{Op: NotOp, Operands: []Node{n}}
}

// In expands membership of left in values to an or of eq comparisons.
// An empty value list has no protocol form and is rejected.
func In(left Node, values ...Node) (Node, error) {
	if len(values) == 0 {
		return nil, odataerr.Unsupported("in", "membership test needs at least one value")
	}
	operands := make([]Node, len(values))
	for i, v := range values {
		operands[i] = Compare(left, Eq, v)
	}
	if len(operands) == 1 {
		return operands[0], nil
	}
	return Or(operands...), nil
}

// Any builds an any quantifier over the collection at nav.
func Any(nav PropertyRef, body Node) Quantifier {
	return Quantifier{Kind: AnyKind, Navigation: nav, Body: body}
}

// All builds an all quantifier over the collection at nav.
func All(nav PropertyRef, body Node) Quantifier {
	return Quantifier{Kind: AllKind, Navigation: nav, Body: body}
}

// Call builds a function call, rejecting unknown functions and wrong
// argument counts.
func Call(name string, args ...Node) (FunctionCall, error) {
	call := NormalizeCall(FunctionCall{Name: name, Args: append([]Node(nil), args...)})
	fn, ok := LookupFunction(call.Name)
	if !ok {
		return FunctionCall{}, odataerr.Unsupported(name, "unsupported function %q", name)
	}
	if len(call.Args) < fn.MinArgs || len(call.Args) > fn.MaxArgs {
		return FunctionCall{}, odataerr.Unsupported(name, "%s takes %s, got %d", fn.Name, arity(fn), len(call.Args))
	}
	return call, nil
}

// Math builds an arithmetic node.
func Math(left Node, op ArithmeticOp, right Node) Arithmetic {
	return Arithmetic{Left: left, Op: op, Right: right}
}
