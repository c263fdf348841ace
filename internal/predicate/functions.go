package predicate

import (
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
)

// Function describes a built-in query function.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int

	// Result is the Edm type the function returns. It is used to infer the
	// type of a literal compared against the call.
	Result string

	// V3 is the function's 3.0 spelling when it differs. Swapped reports
	// that the 3.0 form takes its two arguments in reverse order
	// (contains(a,b) is substringof(b,a)).
	V3      string
	Swapped bool

	// V4Only marks functions with no 3.0 equivalent.
	V4Only bool
}

var functions = map[string]Function{
	"contains":          {Name: "contains", MinArgs: 2, MaxArgs: 2, Result: ir.EdmBoolean, V3: "substringof", Swapped: true},
	"startswith":        {Name: "startswith", MinArgs: 2, MaxArgs: 2, Result: ir.EdmBoolean},
	"endswith":          {Name: "endswith", MinArgs: 2, MaxArgs: 2, Result: ir.EdmBoolean},
	"length":            {Name: "length", MinArgs: 1, MaxArgs: 1, Result: ir.EdmInt32},
	"indexof":           {Name: "indexof", MinArgs: 2, MaxArgs: 2, Result: ir.EdmInt32},
	"substring":         {Name: "substring", MinArgs: 2, MaxArgs: 3, Result: ir.EdmString},
	"tolower":           {Name: "tolower", MinArgs: 1, MaxArgs: 1, Result: ir.EdmString},
	"toupper":           {Name: "toupper", MinArgs: 1, MaxArgs: 1, Result: ir.EdmString},
	"trim":              {Name: "trim", MinArgs: 1, MaxArgs: 1, Result: ir.EdmString},
	"concat":            {Name: "concat", MinArgs: 2, MaxArgs: 2, Result: ir.EdmString},
	"year":              {Name: "year", MinArgs: 1, MaxArgs: 1, Result: ir.EdmInt32},
	"month":             {Name: "month", MinArgs: 1, MaxArgs: 1, Result: ir.EdmInt32},
	"day":               {Name: "day", MinArgs: 1, MaxArgs: 1, Result: ir.EdmInt32},
	"hour":              {Name: "hour", MinArgs: 1, MaxArgs: 1, Result: ir.EdmInt32},
	"minute":            {Name: "minute", MinArgs: 1, MaxArgs: 1, Result: ir.EdmInt32},
	"second":            {Name: "second", MinArgs: 1, MaxArgs: 1, Result: ir.EdmInt32},
	"fractionalseconds": {Name: "fractionalseconds", MinArgs: 1, MaxArgs: 1, Result: ir.EdmDecimal, V4Only: true},
	"date":              {Name: "date", MinArgs: 1, MaxArgs: 1, Result: ir.EdmDate, V4Only: true},
	"time":              {Name: "time", MinArgs: 1, MaxArgs: 1, Result: ir.EdmTimeOfDay, V4Only: true},
	"now":               {Name: "now", Result: ir.EdmDateTimeOffset, V4Only: true},
	"maxdatetime":       {Name: "maxdatetime", Result: ir.EdmDateTimeOffset, V4Only: true},
	"mindatetime":       {Name: "mindatetime", Result: ir.EdmDateTimeOffset, V4Only: true},
	"round":             {Name: "round", MinArgs: 1, MaxArgs: 1, Result: ir.EdmDouble},
	"floor":             {Name: "floor", MinArgs: 1, MaxArgs: 1, Result: ir.EdmDouble},
	"ceiling":           {Name: "ceiling", MinArgs: 1, MaxArgs: 1, Result: ir.EdmDouble},
}

// LookupFunction returns the function registered under name. Lookup is case
// insensitive; substringof is accepted as an alias of contains with its
// arguments swapped, see NormalizeCall.
func LookupFunction(name string) (Function, bool) {
	fn, ok := functions[strings.ToLower(name)]
	return fn, ok
}

// Functions returns the names of all supported functions in sorted order.
func Functions() []string {
	return ir.SortedKeys(functions)
}

// NormalizeCall rewrites a call to its canonical form: the name is
// lowercased and substringof(b,a) becomes contains(a,b).
func NormalizeCall(call FunctionCall) FunctionCall {
	name := strings.ToLower(call.Name)
	if name == "substringof" && len(call.Args) == 2 {
		return FunctionCall{Name: "contains", Args: []Node{call.Args[1], call.Args[0]}}
	}
	call.Name = name
	return call
}
