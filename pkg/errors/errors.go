// Package errors provides structured error types for chainflow.
//
// The scene core never fails its caller: refusals and fallbacks are logged
// and counted. The codes here classify those soft failures so logs, hooks
// and the HTTP surface can report them consistently, and they carry the
// ordinary hard failures of the adapters (bad config, network errors).
//
// # Error Codes
//
//   - CAPACITY_EXCEEDED: a pool refused an item because its type is full
//   - INVALID_GEOMETRY: a non-finite coordinate was detected and replaced
//   - MISSING_RELATIVE: a child was placed without its parent instance
//   - DUPLICATE_INSTANCE: an item already owns a slot (a no-op, not a fault)
//   - INVALID_*: input or configuration validation failures
//   - NETWORK_ERROR, INTERNAL_ERROR: adapter failures
//   - UNAVAILABLE: the scene loop has stopped
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCapacityExceeded, "%s pool full (%d)", typ, capacity)
//	if errors.Is(err, errors.ErrCodeCapacityExceeded) {
//	    // count it and move on
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, cause, "subscribe %s", channel)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Scene soft failures
	ErrCodeCapacityExceeded  Code = "CAPACITY_EXCEEDED"
	ErrCodeInvalidGeometry   Code = "INVALID_GEOMETRY"
	ErrCodeMissingRelative   Code = "MISSING_RELATIVE"
	ErrCodeDuplicateInstance Code = "DUPLICATE_INSTANCE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidItem   Code = "INVALID_ITEM"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidURL    Code = "INVALID_URL"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeUnavailable Code = "UNAVAILABLE"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsSoft reports whether err is one of the scene's fail-soft codes.
// Soft errors are logged and counted but never stop a layout pass.
func IsSoft(err error) bool {
	switch GetCode(err) {
	case ErrCodeCapacityExceeded, ErrCodeInvalidGeometry, ErrCodeMissingRelative, ErrCodeDuplicateInstance:
		return true
	}
	return false
}
