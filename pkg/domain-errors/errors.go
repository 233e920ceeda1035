// Package dErrors provides coded domain errors. Services return these for
// expected business failures; transports map codes onto status codes.
// Infrastructure facts (missing rows, expired records) use pkg/platform/sentinel
// instead and are translated at the service boundary.
package dErrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error carries a machine-readable code alongside a human message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// Is reports whether err is a coded domain error at all.
func Is(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// CodeOf extracts the outermost code, or CodeInternal when err is uncoded.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
