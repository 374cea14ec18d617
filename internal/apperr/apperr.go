// Package apperr defines the typed error taxonomy shared by every layer of
// the billing core and the single boundary mapper that turns it into
// transport-safe responses.
package apperr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is a stable, closed set of error categories. Every fallible domain
// operation returns (or wraps) one of these; nothing else reaches the
// transport boundary.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindPaymentProcessor Kind = "payment_processor"
	KindInternal         Kind = "internal"
)

// Status returns the transport status code associated with a Kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return 400
	case KindUnauthorized:
		return 401
	case KindForbidden:
		return 403
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindPaymentProcessor:
		return 502
	default:
		return 500
	}
}

// Error is the concrete typed error. Message is safe to surface to callers;
// Cause may carry internal detail (relational driver errors, stack traces)
// that the mapper strips in production mode.
type Error struct {
	Kind          Kind
	Message       string
	ProcessorCode string // set only for KindPaymentProcessor
	cause         error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is allows errors.Is(err, apperr.Conflict("")) style kind comparisons.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func new_(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func Validation(msg string) *Error   { return new_(KindValidation, msg, nil) }
func NotFound(msg string) *Error     { return new_(KindNotFound, msg, nil) }
func Conflict(msg string) *Error     { return new_(KindConflict, msg, nil) }
func Unauthorized(msg string) *Error { return new_(KindUnauthorized, msg, nil) }
func Forbidden(msg string) *Error    { return new_(KindForbidden, msg, nil) }

// Internal captures cause with a stack trace (via github.com/pkg/errors) for
// non-production logging; the mapper never surfaces cause or the trace to
// the caller.
func Internal(msg string, cause error) *Error {
	if cause != nil {
		cause = pkgerrors.WithStack(cause)
	}
	return new_(KindInternal, msg, cause)
}

// Processor wraps a classified payment-processor failure. code is a safe,
// processor-defined code (e.g. "card_declined"); it is surfaced to callers,
// internal schema/driver details never are.
func Processor(code, msg string, cause error) *Error {
	e := new_(KindPaymentProcessor, msg, cause)
	e.ProcessorCode = code
	return e
}

// As extracts an *Error from err, returning (nil, false) if err is not (or
// does not wrap) an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// OfKind reports whether err is (or wraps) an *Error of the given kind.
func OfKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
