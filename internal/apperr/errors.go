// Package apperr defines the error taxonomy shared by the board services
// and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrLocked       = errors.New("room is locked")
	ErrStorage      = errors.New("storage failure")
)

// Error is a classified failure carrying a client-facing message.
type Error struct {
	kind    error
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.message != "" {
		return e.message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.kind.Error()
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Validation reports a missing or malformed required field.
func Validation(message string) error {
	return &Error{kind: ErrValidation, message: message}
}

// NotFound reports a missing room or message.
func NotFound(message string) error {
	return &Error{kind: ErrNotFound, message: message}
}

// Unauthorized reports an admin action without an admin session.
func Unauthorized(message string) error {
	return &Error{kind: ErrUnauthorized, message: message}
}

// Locked reports a locked room the session has not unlocked.
func Locked(message string) error {
	return &Error{kind: ErrLocked, message: message}
}

// Storage wraps an underlying store or filesystem failure.
// The raw cause message is passed through to the client.
func Storage(cause error) error {
	if cause == nil {
		return nil
	}
	var ae *Error
	if errors.As(cause, &ae) {
		return cause
	}
	return &Error{kind: ErrStorage, cause: cause}
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrLocked):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
