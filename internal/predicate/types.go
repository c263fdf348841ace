package predicate

import (
	"strconv"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
)

// Node is a predicate or operand expression.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	predicateNode() // Marker method - seals interface to this package
}

// CompareOp is a comparison operator token.
type CompareOp string

const (
	Eq CompareOp = "eq"
	Ne CompareOp = "ne"
	Gt CompareOp = "gt"
	Ge CompareOp = "ge"
	Lt CompareOp = "lt"
	Le CompareOp = "le"
)

// Valid reports whether op is one of the six comparison operators.
func (op CompareOp) Valid() bool {
	switch op {
	case Eq, Ne, Gt, Ge, Lt, Le:
		return true
	}
	return false
}

// LogicalOp is a boolean connective.
type LogicalOp string

const (
	AndOp LogicalOp = "and"
	OrOp  LogicalOp = "or"
	NotOp LogicalOp = "not"
)

// QuantifierKind selects any or all.
type QuantifierKind string

const (
	AnyKind QuantifierKind = "any"
	AllKind QuantifierKind = "all"
)

// ArithmeticOp is an arithmetic operator token.
type ArithmeticOp string

const (
	Add ArithmeticOp = "add"
	Sub ArithmeticOp = "sub"
	Mul ArithmeticOp = "mul"
	Div ArithmeticOp = "div"
	Mod ArithmeticOp = "mod"
)

// Valid reports whether op is a supported arithmetic operator.
func (op ArithmeticOp) Valid() bool {
	switch op {
	case Add, Sub, Mul, Div, Mod:
		return true
	}
	return false
}

// RootVar names the root resource inside a quantifier body.
const RootVar = "$it"

// BoundVar returns the variable name assigned to a quantifier at the given
// nesting depth (1 for the outermost quantifier): d, d2, d3, ...
func BoundVar(depth int) string {
	if depth <= 1 {
		return "d"
	}
	return "d" + strconv.Itoa(depth)
}

// Comparison compares two operands.
//
// Example:
//
//	Comparison{Left: Prop("ShipName"), Op: Eq, Right: Lit(ir.String("Titanic"))}
//
// renders as:
//
//	ShipName eq 'Titanic'
type Comparison struct {
	Left  Node
	Op    CompareOp
	Right Node
}

func (Comparison) predicateNode() {}

// Logical combines operands with and/or, or negates a single operand.
//
// An empty and is vacuously true and an empty or is false. not takes
// exactly one operand.
type Logical struct {
	Op       LogicalOp
	Operands []Node
}

func (Logical) predicateNode() {}

// Quantifier tests Body against the elements of a collection-valued
// property.
//
// Var is the lambda variable. When empty the translator assigns
// BoundVar(depth). PropertyRefs without a Var inside Body are relative to
// the collection element.
//
// Example:
//
//	Quantifier{
//	  Kind:       AnyKind,
//	  Navigation: Prop("Items"),
//	  Body:       Comparison{Left: Prop("Quantity"), Op: Gt, Right: Lit(ir.Int(50))},
//	}
//
// renders as:
//
//	Items/any(d:d/Quantity gt 50)
type Quantifier struct {
	Kind       QuantifierKind
	Navigation PropertyRef
	Var        string
	Body       Node
}

func (Quantifier) predicateNode() {}

// FunctionCall invokes a built-in query function. Name is the canonical
// lowercase function name; see LookupFunction.
type FunctionCall struct {
	Name string
	Args []Node
}

func (FunctionCall) predicateNode() {}

// Arithmetic applies an arithmetic operator to two operands.
type Arithmetic struct {
	Left  Node
	Op    ArithmeticOp
	Right Node
}

func (Arithmetic) predicateNode() {}

// PropertyRef is a property path, optionally rooted at a bound variable.
// An empty Path with a Var refers to the variable itself (the element of a
// primitive collection).
type PropertyRef struct {
	Var  string
	Path []string
}

func (PropertyRef) predicateNode() {}

// Literal is a constant operand. DeclaredType, when set, is the Edm type
// the value is rendered as; otherwise the translator infers it from the
// compared property.
type Literal struct {
	Value        ir.Value
	DeclaredType string
}

func (Literal) predicateNode() {}
