// Package odataerr defines the error taxonomy shared by the command
// translation packages.
//
// Every failure is local and synchronous. Nothing here is retried; callers
// decide whether an error is recoverable (for example treating
// RESOURCE_NOT_FOUND as an empty result).
package odataerr

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Code categorizes translation errors.
type Code string

const (
	// CodeUnsupportedExpression indicates a predicate construct with no
	// protocol equivalent.
	CodeUnsupportedExpression Code = "UNSUPPORTED_EXPRESSION"

	// CodeUnknownProperty indicates a reference to a property the resource
	// does not declare.
	CodeUnknownProperty Code = "UNKNOWN_PROPERTY"

	// CodeKeyMismatch indicates a key mapping that does not match the
	// declared key properties.
	CodeKeyMismatch Code = "KEY_MISMATCH"

	// CodeAmbiguousAddressing indicates a command that addresses entities by
	// key and by filter at the same time.
	CodeAmbiguousAddressing Code = "AMBIGUOUS_ADDRESSING"

	// CodeResourceNotFound is reported by metadata resolvers for unknown
	// resource names.
	CodeResourceNotFound Code = "RESOURCE_NOT_FOUND"

	// CodeInvalidCommand indicates a malformed command descriptor
	// (negative paging, body on a delete, ...).
	CodeInvalidCommand Code = "INVALID_COMMAND"
)

// Error is the structured error returned by the translation core.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Resource is the resource being translated, when known.
	Resource string

	// Property names the offending property (UNKNOWN_PROPERTY).
	Property string

	// Construct names the offending operator or function
	// (UNSUPPORTED_EXPRESSION).
	Construct string

	// Missing and Extra list key property names (KEY_MISMATCH).
	Missing []string
	Extra   []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, " (missing=%s)", strings.Join(e.Missing, ","))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, " (extra=%s)", strings.Join(e.Extra, ","))
	}
	if e.Resource != "" {
		fmt.Fprintf(&b, " (resource=%s)", e.Resource)
	}
	return b.String()
}

// Is reports whether target is an *Error with the same code. This lets the
// package sentinels be used with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithResource returns err with its resource filled in when err is an
// *Error that names none. The original is never modified, so an *Error
// shared between calls keeps its own fields. Other errors are returned
// unchanged.
func WithResource(err error, resource string) error {
	oerr, ok := err.(*Error)
	if !ok || oerr.Resource != "" || resource == "" {
		return err
	}
	cp := *oerr
	cp.Resource = resource
	cp.Missing = slices.Clone(oerr.Missing)
	cp.Extra = slices.Clone(oerr.Extra)
	return &cp
}

// Sentinels for errors.Is matching. Only the Code is compared.
var (
	ErrUnsupportedExpression = &Error{Code: CodeUnsupportedExpression, Message: "unsupported expression"}
	ErrUnknownProperty       = &Error{Code: CodeUnknownProperty, Message: "unknown property"}
	ErrKeyMismatch           = &Error{Code: CodeKeyMismatch, Message: "key mismatch"}
	ErrAmbiguousAddressing   = &Error{Code: CodeAmbiguousAddressing, Message: "ambiguous addressing"}
	ErrResourceNotFound      = &Error{Code: CodeResourceNotFound, Message: "resource not found"}
	ErrInvalidCommand        = &Error{Code: CodeInvalidCommand, Message: "invalid command"}
)

// CodeOf returns the Code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUnsupportedExpression returns true if err is an UNSUPPORTED_EXPRESSION error.
func IsUnsupportedExpression(err error) bool {
	return CodeOf(err) == CodeUnsupportedExpression
}

// IsUnknownProperty returns true if err is an UNKNOWN_PROPERTY error.
func IsUnknownProperty(err error) bool {
	return CodeOf(err) == CodeUnknownProperty
}

// IsKeyMismatch returns true if err is a KEY_MISMATCH error.
func IsKeyMismatch(err error) bool {
	return CodeOf(err) == CodeKeyMismatch
}

// IsAmbiguousAddressing returns true if err is an AMBIGUOUS_ADDRESSING error.
func IsAmbiguousAddressing(err error) bool {
	return CodeOf(err) == CodeAmbiguousAddressing
}

// IsResourceNotFound returns true if err is a RESOURCE_NOT_FOUND error.
func IsResourceNotFound(err error) bool {
	return CodeOf(err) == CodeResourceNotFound
}

// Unsupported creates an UNSUPPORTED_EXPRESSION error naming construct.
func Unsupported(construct, format string, args ...any) *Error {
	return &Error{
		Code:      CodeUnsupportedExpression,
		Message:   fmt.Sprintf(format, args...),
		Construct: construct,
	}
}

// UnknownProperty creates an UNKNOWN_PROPERTY error.
func UnknownProperty(resource, property string) *Error {
	return &Error{
		Code:     CodeUnknownProperty,
		Message:  fmt.Sprintf("property %q is not declared", property),
		Resource: resource,
		Property: property,
	}
}

// KeyMismatch creates a KEY_MISMATCH error listing missing and extra names.
func KeyMismatch(resource string, missing, extra []string) *Error {
	return &Error{
		Code:     CodeKeyMismatch,
		Message:  "key mapping does not match declared key properties",
		Resource: resource,
		Missing:  missing,
		Extra:    extra,
	}
}

// AmbiguousAddressing creates an AMBIGUOUS_ADDRESSING error.
func AmbiguousAddressing(resource string) *Error {
	return &Error{
		Code:     CodeAmbiguousAddressing,
		Message:  "command addresses entities by key and by filter",
		Resource: resource,
	}
}

// ResourceNotFound creates a RESOURCE_NOT_FOUND error.
func ResourceNotFound(resource string) *Error {
	return &Error{
		Code:     CodeResourceNotFound,
		Message:  fmt.Sprintf("resource %q not found", resource),
		Resource: resource,
	}
}

// InvalidCommand creates an INVALID_COMMAND error.
func InvalidCommand(resource, format string, args ...any) *Error {
	return &Error{
		Code:     CodeInvalidCommand,
		Message:  fmt.Sprintf(format, args...),
		Resource: resource,
	}
}
