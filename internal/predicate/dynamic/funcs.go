package dynamic

import (
	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// Func calls a supported function by name. Arguments are converted like
// comparison values. An unknown function or a wrong argument count fails
// at Build.
func Func(name string, args ...any) Operand {
	call, err := buildCall(name, args)
	if err != nil {
		return Operand{err: err}
	}
	return Operand{node: call}
}

// Call calls a supported boolean function as a predicate.
func Call(name string, args ...any) Expr {
	call, err := buildCall(name, args)
	if err != nil {
		return failed(err)
	}
	return Expr{node: call}
}

func buildCall(name string, args []any) (predicate.FunctionCall, error) {
	nodes := make([]predicate.Node, len(args))
	for i, a := range args {
		n, err := operand(a)
		if err != nil {
			return predicate.FunctionCall{}, err
		}
		nodes[i] = n
	}
	return predicate.Call(name, nodes...)
}

func (o Operand) Contains(sub any) Expr   { return Call("contains", o, sub) }
func (o Operand) StartsWith(p any) Expr   { return Call("startswith", o, p) }
func (o Operand) EndsWith(s any) Expr     { return Call("endswith", o, s) }
func (o Operand) Length() Operand         { return Func("length", o) }
func (o Operand) IndexOf(sub any) Operand { return Func("indexof", o, sub) }
func (o Operand) ToLower() Operand        { return Func("tolower", o) }
func (o Operand) ToUpper() Operand        { return Func("toupper", o) }
func (o Operand) Trim() Operand           { return Func("trim", o) }
func (o Operand) Year() Operand           { return Func("year", o) }
func (o Operand) Month() Operand          { return Func("month", o) }
func (o Operand) Day() Operand            { return Func("day", o) }
func (o Operand) Hour() Operand           { return Func("hour", o) }
func (o Operand) Minute() Operand         { return Func("minute", o) }
func (o Operand) Second() Operand         { return Func("second", o) }
