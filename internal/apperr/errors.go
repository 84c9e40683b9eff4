// Package apperr defines the error kinds returned across service boundaries.
// Handlers map a Kind to an HTTP status; the Message is safe to show to callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindUnauthorized        Kind = "unauthorized"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamError       Kind = "upstream_error"
	KindInternal            Kind = "internal"
)

// Error carries a Kind, a caller-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func BadRequest(message string) *Error   { return New(KindBadRequest, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }

// Internal wraps an unexpected failure. The message shown to callers is fixed.
func Internal(err error) *Error {
	return Wrap(KindInternal, "internal server error", err)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the caller-facing message for err. Errors without a Kind
// are treated as internal and never leak their text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindInternal {
			return "internal server error"
		}
		return e.Message
	}
	return "internal server error"
}
