// Package errors provides structured error handling with typed error codes.
//
// Error codes are grouped by pipeline stage:
//   - General errors (1-99)
//   - Request and configuration errors (100-199)
//   - Contract errors (200-299): parsing and delivery date resolution
//   - Source errors (300-399): primary and synthetic engine access
//   - Pipeline errors (400-499): orchestration annotations
//   - Export errors (500-599)
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeInvalidContractFormat, "contract %q is too short", code)
//
//	if errors.HasCode(err, errors.ErrCodeSourceUnavailable) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is an error carrying an ErrorCode, a message and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps cause with the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is is a shorthand for the standard errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a shorthand for the standard errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the first *Error in err's chain,
// or ErrCodeUnknown when there is none.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// GetCodeOr is like GetCode but returns fallback when err carries no code.
func GetCodeOr(err error, fallback ErrorCode) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return fallback
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// Info is a flattened, serializable view of an error for result payloads.
type Info struct {
	Code    ErrorCode `json:"code"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
}

// ToInfo converts err into an Info. A nil error yields a zero Info.
func ToInfo(err error) Info {
	if err == nil {
		return Info{}
	}

	code := GetCode(err)

	return Info{Code: code, Name: code.String(), Message: err.Error()}
}
