// Package apperr defines the typed errors services return. The HTTP layer
// maps each Kind to a status code; anything else becomes a 500.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindForbidden
	// KindUnprocessable is well-formed input that cannot be acted on, such as
	// an assignee name nobody answers to.
	KindUnprocessable
	// KindBadGateway is an upstream system rejecting or failing a call.
	KindBadGateway
	// KindUnavailable is a required integration that is not configured.
	KindUnavailable
)

var kindStatus = map[Kind]int{
	KindNotFound:      http.StatusNotFound,
	KindValidation:    http.StatusBadRequest,
	KindConflict:      http.StatusConflict,
	KindForbidden:     http.StatusForbidden,
	KindUnprocessable: http.StatusUnprocessableEntity,
	KindBadGateway:    http.StatusBadGateway,
	KindUnavailable:   http.StatusServiceUnavailable,
}

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, never shown to clients
	Details any   // optional response payload
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the response status for e's Kind.
func (e *Error) HTTPStatus() int {
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithDetails attaches a response payload and returns e.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches kind and a client-safe message to err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error      { return New(KindNotFound, message) }
func Validation(message string) *Error    { return New(KindValidation, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func Forbidden(message string) *Error     { return New(KindForbidden, message) }
func Unprocessable(message string) *Error { return New(KindUnprocessable, message) }
func Unavailable(message string) *Error   { return New(KindUnavailable, message) }

// Is reports whether err's chain contains an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
