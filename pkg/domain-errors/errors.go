// Package dErrors provides coded domain errors. Services return these so
// transport layers can map outcomes to status codes without string matching.
package dErrors

import "fmt"

// Code identifies a class of domain failure.
type Code string

const (
	CodeBadRequest           Code = "bad_request"
	CodeUnauthorized         Code = "unauthorized"
	CodeNotFound             Code = "not_found"
	CodeConflict             Code = "conflict"
	CodeInternal             Code = "internal_error"
	CodeUnavailable          Code = "unavailable"
	CodeMissingConfiguration Code = "missing_configuration"
)

// Error carries a stable code plus a human-readable description. The
// description is safe to log; transport decides whether to expose it.
type Error struct {
	Code        Code
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// New constructs a coded domain error.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Wrap constructs a coded domain error from an underlying cause.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Description: cause.Error()}
}

// CodeOf extracts the code from an error, defaulting to CodeInternal for
// anything that is not a domain error.
func CodeOf(err error) Code {
	if derr, ok := err.(*Error); ok {
		return derr.Code
	}
	return CodeInternal
}
