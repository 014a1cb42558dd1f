// Package domainerrors provides coded errors that services return to the
// transport layer. Codes map to HTTP statuses in one place (pkg/platform/httputil)
// so handlers never hand-pick status codes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport-level translation.
type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeRateLimited  Code = "rate_limited"
	CodeInternal     Code = "internal_error"
)

// Error is a coded error with an operator-facing message.
// The message is safe to log but only non-internal messages are safe to
// return to clients.
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

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error without an underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an underlying error with a code and message.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the code from an error chain. Uncoded errors are internal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-facing message from an error chain.
// Uncoded errors yield an empty message so internal detail never leaks.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
