// Package predicate provides the language-neutral predicate model used to
// build $filter expressions.
//
// The model sits between the predicate front-ends and the expression
// translator:
//
//	[typed front-end]   \
//	                     -> [predicate.Node] -> [filter translator] -> $filter text
//	[dynamic front-end] /
//
// Both front-ends produce the same node trees for the same logical content,
// so a predicate built from Go struct types and one built from plain
// property names render to byte-identical text.
//
// SEALED INTERFACE:
//
// Node is a sealed interface using the marker method pattern. Only types in
// this package implement it, so a type switch over a Node is exhaustive.
// Consumers accept both value and pointer forms of every node.
//
// NODE FAMILY:
//
//	Comparison   <left> eq|ne|gt|ge|lt|le <right>
//	Logical      and / or over operands, not over one operand
//	Quantifier   <navigation>/any(<var>:<body>) and .../all(...)
//	FunctionCall contains(Name,'x'), year(OrderDate), ...
//	Arithmetic   <left> add|sub|mul|div|mod <right>
//	PropertyRef  Category/Name, optionally relative to a bound variable
//	Literal      a value plus an optional declared Edm type
//
// PROPERTY SCOPE:
//
// A PropertyRef with an empty Var is relative to the innermost scope: the
// resource at the top level, the element of the innermost quantifier inside
// a quantifier body. Var may name an enclosing quantifier variable, or
// RootVar to reach the root resource from inside a body.
//
// Property names are not checked here. They are validated against metadata
// when the predicate is translated, which lets dynamic predicates be built
// before metadata is available.
package predicate
