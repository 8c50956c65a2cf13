// Package errs holds the error taxonomy shared by the domain core and its adapters.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind string

const (
	KindNotFound               Kind = "NOT_FOUND"
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindConstraintViolation    Kind = "CONSTRAINT_VIOLATION"
	KindConflict               Kind = "CONFLICT"
)

// Sentinels usable as errors.Is targets; matching is by Kind only.
var (
	NotFound               = &Error{Kind: KindNotFound}
	Unauthorized           = &Error{Kind: KindUnauthorized}
	InvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ConstraintViolation    = &Error{Kind: KindConstraintViolation}
	Conflict               = &Error{Kind: KindConflict}
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies cause under kind.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Unauthorizedf(format string, args ...any) *Error {
	return New(KindUnauthorized, format, args...)
}

func InvalidStatef(format string, args ...any) *Error {
	return New(KindInvalidStateTransition, format, args...)
}

func Constraintf(format string, args ...any) *Error {
	return New(KindConstraintViolation, format, args...)
}

func Conflictf(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
