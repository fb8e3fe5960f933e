// Package apperr classifies service errors so callers can tell bad input
// from stale references, broken preconditions and store failures.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the coarse category of an error.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindPrecondition Kind = "precondition"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindPersistence  Kind = "persistence"
)

// Error is a classified error. Field is set for validation errors.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Reason
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing input for field.
func Validation(field, reason string) *Error {
	return &Error{Kind: KindValidation, Field: field, Reason: reason}
}

// Precondition reports a violated invariant; no mutation took place.
func Precondition(err error, format string, args ...any) *Error {
	return &Error{Kind: KindPrecondition, Reason: fmt.Sprintf(format, args...), Err: err}
}

// NotFound reports an unknown id.
func NotFound(err error, resource, id string) *Error {
	return &Error{Kind: KindNotFound, Reason: resource + " " + id + " not found", Err: err}
}

// Forbidden reports an actor lacking the capability for an operation.
func Forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

// Persistence wraps a store failure. It is retryable by the caller.
func Persistence(err error, op string) *Error {
	return &Error{Kind: KindPersistence, Reason: op, Err: err}
}

// KindOf classifies err. Unclassified errors count as persistence failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// FieldOf returns the offending field of a validation error.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// Retryable reports whether the caller may retry the same request.
func Retryable(err error) bool {
	return KindOf(err) == KindPersistence
}
