// Package apperror classifies request failures into the HTTP status and
// caller-visible message the terminal error handler renders.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// FieldError is one violated validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Status  int
	Message string
	Fields  []FieldError
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error rendered with status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Conflict reports a uniqueness violation. The API surfaces these as 400.
func Conflict(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Validation(fields []FieldError) *Error {
	return &Error{Status: http.StatusBadRequest, Message: "Validation failed", Fields: fields}
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Internal wraps an unexpected failure and records where it was wrapped.
func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: "Internal Server Error",
		Err:     err,
		Stack:   debug.Stack(),
	}
}

// Wrap attaches the underlying cause for logging without changing what the caller sees.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// As extracts a classified error from err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
