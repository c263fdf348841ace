package command

import (
	"fmt"
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/keys"
	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// Operation is what a command does with the addressed resource.
type Operation string

const (
	Get    Operation = "get"
	Insert Operation = "insert"
	Update Operation = "update"
	Delete Operation = "delete"
)

// ParseOperation parses an operation name; "" is Get.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(s)); op {
	case "":
		return Get, nil
	case Get, Insert, Update, Delete:
		return op, nil
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// Method returns the HTTP method carrying the operation.
func (op Operation) Method() string {
	switch op {
	case Insert:
		return "POST"
	case Update:
		return "PATCH"
	case Delete:
		return "DELETE"
	default:
		return "GET"
	}
}

// Order is one $orderby clause.
type Order struct {
	Property   string
	Descending bool
}

// Param is a query option as it appears in the command text.
type Param struct {
	Name  string
	Value string
}

// Descriptor describes one command. It is a plain value: equal
// descriptors build equal text.
type Descriptor struct {
	// Resource is the entity set, or a derived resource whose base chain
	// leads to one.
	Resource string

	// Derived optionally names a resource derived from Resource to address
	// through it (Transport + Ships gives Transport/Ships).
	Derived string

	// Key addresses a single entity.
	Key keys.Mapping

	// Filter and RawFilter are mutually exclusive. RawFilter is used
	// verbatim.
	Filter    predicate.Node
	RawFilter string

	// Navigate lists navigation properties followed after the key.
	Navigate []string

	// Function is a function segment appended to the path, with literal
	// arguments.
	Function     string
	FunctionArgs []keys.Pair

	Select  []string
	Expand  []string
	OrderBy []Order

	// Skip and Top are omitted when nil.
	Skip *int
	Top  *int

	// Count requests the total count along with the results.
	Count bool

	// Params are appended after the system query options, in order.
	Params []Param

	// Operation defaults to Get.
	Operation Operation

	// Body is the entity payload of Insert and Update.
	Body map[string]any
}

// Query builds a Descriptor fluently.
//
//	d := command.From("Products").
//		Filter(node).
//		Select("ProductID", "ProductName").
//		OrderByDesc("UnitPrice").
//		Top(5).
//		Descriptor()
type Query struct {
	d Descriptor
}

// From starts a query on resource.
func From(resource string) *Query {
	return &Query{d: Descriptor{Resource: resource}}
}

// As addresses the derived resource through the query's resource.
func (q *Query) As(derived string) *Query {
	q.d.Derived = derived
	return q
}

// Key addresses a single entity.
func (q *Query) Key(m keys.Mapping) *Query {
	q.d.Key = m
	return q
}

// Filter sets the predicate.
func (q *Query) Filter(n predicate.Node) *Query {
	q.d.Filter = n
	return q
}

// FilterText sets a raw $filter expression.
func (q *Query) FilterText(s string) *Query {
	q.d.RawFilter = s
	return q
}

// Navigate follows navigation properties.
func (q *Query) Navigate(names ...string) *Query {
	q.d.Navigate = append(q.d.Navigate, names...)
	return q
}

// Function appends a function segment.
func (q *Query) Function(name string, args ...keys.Pair) *Query {
	q.d.Function = name
	q.d.FunctionArgs = append([]keys.Pair(nil), args...)
	return q
}

func (q *Query) Select(props ...string) *Query {
	q.d.Select = append(q.d.Select, props...)
	return q
}

func (q *Query) Expand(paths ...string) *Query {
	q.d.Expand = append(q.d.Expand, paths...)
	return q
}

func (q *Query) OrderBy(props ...string) *Query {
	for _, p := range props {
		q.d.OrderBy = append(q.d.OrderBy, Order{Property: p})
	}
	return q
}

func (q *Query) OrderByDesc(props ...string) *Query {
	for _, p := range props {
		q.d.OrderBy = append(q.d.OrderBy, Order{Property: p, Descending: true})
	}
	return q
}

func (q *Query) Skip(n int) *Query {
	q.d.Skip = &n
	return q
}

func (q *Query) Top(n int) *Query {
	q.d.Top = &n
	return q
}

func (q *Query) Count() *Query {
	q.d.Count = true
	return q
}

// Param appends a custom query option.
func (q *Query) Param(name, value string) *Query {
	q.d.Params = append(q.d.Params, Param{Name: name, Value: value})
	return q
}

// Operation sets the operation and its payload.
func (q *Query) Operation(op Operation, body map[string]any) *Query {
	q.d.Operation = op
	q.d.Body = body
	return q
}

// Descriptor returns a copy of the built descriptor.
func (q *Query) Descriptor() Descriptor {
	d := q.d
	d.Navigate = append([]string(nil), d.Navigate...)
	d.Select = append([]string(nil), d.Select...)
	d.Expand = append([]string(nil), d.Expand...)
	d.OrderBy = append([]Order(nil), d.OrderBy...)
	d.Params = append([]Param(nil), d.Params...)
	return d
}
