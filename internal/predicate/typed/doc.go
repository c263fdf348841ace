// Package typed builds predicates from Go struct types.
//
// A resource is described by a Go struct. Property handles are created by
// name and checked against the struct's fields, so a handle carries the Go
// type of the property and comparisons only accept values of that type:
//
//	type Product struct {
//		ProductID   int32   `odata:"ProductID"`
//		ProductName string  `json:"ProductName"`
//		UnitPrice   float64
//	}
//
//	name := typed.Prop[Product, string]("ProductName")
//	price := typed.Prop[Product, float64]("UnitPrice")
//	expr := typed.And(name.Eq("Chai"), price.Gt(10))
//	node, err := expr.Build()
//
// Fields are located by `odata` tag, then `json` tag, then field name, and
// embedded structs are searched after direct fields, so a derived type can
// embed its base.
//
// Errors are sticky: a bad handle poisons every expression built from it
// and the first error surfaces from Build. The trees are identical to
// those of the dynamic front-end for the same logical predicate.
package typed
