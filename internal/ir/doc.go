// Package ir provides the literal value types shared by the command
// translation packages, the type-directed literal renderer, and the
// canonical JSON encoding used for content-addressed request keys.
//
// This package imports nothing internal except odataerr. predicate, filter,
// keys and command all build on it.
//
// Key design constraints:
//   - Value is a sealed interface; a type switch over it is exhaustive
//   - Literal rendering never depends on the process locale
//   - DateTime values always render in UTC
//   - Canonical JSON sorts object keys by UTF-16 code units (RFC 8785)
package ir
