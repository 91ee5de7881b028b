// Package errors provides structured error types for microperf.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so the CLI can print a friendly message and the HTTP API can pick a
// status code without string matching.
//
// # Error Codes
//
//   - INVALID_*: the caller supplied something unusable (degenerate geometry,
//     unknown output format, malformed series file)
//   - NOT_FOUND: a referenced resource (archived run, style) does not exist
//   - UNSUPPORTED / INTERNAL_ERROR: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidParameter, "hole spacing must be positive, got %g", s)
//	if errors.Is(err, errors.ErrCodeInvalidParameter) {
//	    // degenerate geometry
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	ErrCodeInvalidParameter Code = "INVALID_PARAMETER" // degenerate geometry
	ErrCodeInvalidInput     Code = "INVALID_INPUT"     // malformed request or document
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"    // unknown or unreadable format
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG" // bad series file

	ErrCodeNotFound Code = "NOT_FOUND"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error pairs a Code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// Is reports whether err's chain holds an *Error with the given code.
func Is(err error, code Code) bool {
	return code != "" && GetCode(err) == code
}

// IsInvalid reports whether err carries one of the INVALID_* codes.
func IsInvalid(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidParameter, ErrCodeInvalidInput, ErrCodeInvalidFormat,
		ErrCodeInvalidPath, ErrCodeInvalidConfig:
		return true
	}
	return false
}

// UserMessage is the message without code prefix or cause. Plain errors are
// returned as-is.
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.Message
	}
	return err.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
