package ragError

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	InvalidConfiguration Kind = "InvalidConfiguration"
	ValidationFailure    Kind = "ValidationFailure"
	NotFound             Kind = "NotFound"
	Unauthorized         Kind = "Unauthorized"
	RateLimited          Kind = "RateLimited"
	TransientFailure     Kind = "TransientFailure"
	PermanentFailure     Kind = "PermanentFailure"
	StreamFailure        Kind = "StreamFailure"
)

// Error is the classified failure every layer hands upwards.
// Op names the step that failed, Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies cause. A cause that already carries a Kind keeps it.
func Wrap(kind Kind, op string, cause error) *Error {
	var existing *Error
	if errors.As(cause, &existing) {
		kind = existing.Kind
	}
	return &Error{Kind: kind, Op: op, Message: messageOf(cause), cause: cause}
}

// Reclassify wraps cause under kind even when cause already carries one.
func Reclassify(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: messageOf(cause), cause: cause}
}

func messageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// FromContext turns a finished context into a TransientFailure, or returns nil.
func FromContext(ctx context.Context, op string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(TransientFailure, op, err)
	}
	return err
}

// KindOf returns the Kind carried by err. Deadline errors are transient, anything unclassified is permanent.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TransientFailure
	}
	return PermanentFailure
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsRetryable(err error) bool {
	switch KindOf(err) {
	case RateLimited, TransientFailure:
		return true
	}
	return false
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case ValidationFailure:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case RateLimited:
		return http.StatusTooManyRequests
	case TransientFailure:
		return http.StatusServiceUnavailable
	case PermanentFailure, StreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus classifies an upstream HTTP status code.
func FromHTTPStatus(op string, status int, cause error) *Error {
	switch {
	case status == http.StatusTooManyRequests:
		return Wrap(RateLimited, op, cause)
	case status == http.StatusRequestTimeout || status >= 500:
		return Wrap(TransientFailure, op, cause)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Wrap(InvalidConfiguration, op, cause)
	default:
		return Wrap(PermanentFailure, op, cause)
	}
}
