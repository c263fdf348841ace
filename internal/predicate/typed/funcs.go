package typed

import (
	"time"

	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// Func calls a supported function with result type V. An unknown function
// or a wrong argument count fails at Build.
func Func[T, V any](name string, args ...Arg[T]) Operand[T, V] {
	call, err := buildCall(name, args)
	if err != nil {
		return Operand[T, V]{err: err}
	}
	return Operand[T, V]{node: call}
}

// Call calls a supported boolean function as a predicate.
func Call[T any](name string, args ...Arg[T]) Expr[T] {
	call, err := buildCall(name, args)
	if err != nil {
		return failed[T](err)
	}
	return Expr[T]{node: call}
}

func buildCall[T any](name string, args []Arg[T]) (predicate.FunctionCall, error) {
	nodes := make([]predicate.Node, len(args))
	for i, a := range args {
		n, err := a.arg()
		if err != nil {
			return predicate.FunctionCall{}, err
		}
		nodes[i] = n
	}
	return predicate.Call(name, nodes...)
}

func Contains[T any](o Operand[T, string], sub string) Expr[T] {
	return Call[T]("contains", Arg[T](o), Value[T](sub))
}

func StartsWith[T any](o Operand[T, string], prefix string) Expr[T] {
	return Call[T]("startswith", Arg[T](o), Value[T](prefix))
}

func EndsWith[T any](o Operand[T, string], suffix string) Expr[T] {
	return Call[T]("endswith", Arg[T](o), Value[T](suffix))
}

func Length[T any](o Operand[T, string]) Operand[T, int] {
	return Func[T, int]("length", o)
}

func IndexOf[T any](o Operand[T, string], sub string) Operand[T, int] {
	return Func[T, int]("indexof", o, Value[T](sub))
}

func ToLower[T any](o Operand[T, string]) Operand[T, string] {
	return Func[T, string]("tolower", o)
}

func ToUpper[T any](o Operand[T, string]) Operand[T, string] {
	return Func[T, string]("toupper", o)
}

func Trim[T any](o Operand[T, string]) Operand[T, string] {
	return Func[T, string]("trim", o)
}

func Year[T any](o Operand[T, time.Time]) Operand[T, int] {
	return Func[T, int]("year", o)
}

func Month[T any](o Operand[T, time.Time]) Operand[T, int] {
	return Func[T, int]("month", o)
}

func Day[T any](o Operand[T, time.Time]) Operand[T, int] {
	return Func[T, int]("day", o)
}

func Hour[T any](o Operand[T, time.Time]) Operand[T, int] {
	return Func[T, int]("hour", o)
}

func Minute[T any](o Operand[T, time.Time]) Operand[T, int] {
	return Func[T, int]("minute", o)
}

func Second[T any](o Operand[T, time.Time]) Operand[T, int] {
	return Func[T, int]("second", o)
}
