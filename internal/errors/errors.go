package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific failure class for better error handling
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD_FAILED"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Dataplane API errors
	ErrCodeSnapshotFetch  ErrorCode = "SNAPSHOT_FETCH_FAILED"
	ErrCodeSnapshotDecode ErrorCode = "SNAPSHOT_DECODE_FAILED"

	// Persistence errors
	ErrCodeDatabase        ErrorCode = "DATABASE_FAILED"
	ErrCodeUnknownInstance ErrorCode = "UNKNOWN_PROXY_INSTANCE"
)

// CollectorError is a structured error carrying a failure class, the
// component that produced it and the underlying cause.
type CollectorError struct {
	Code      ErrorCode
	Message   string
	Component string
	Cause     error
}

// Error implements the error interface
func (e *CollectorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, e.Component, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *CollectorError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error code
func (e *CollectorError) Is(target error) bool {
	if t, ok := target.(*CollectorError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a CollectorError without an underlying cause
func New(code ErrorCode, component, message string) *CollectorError {
	return &CollectorError{
		Code:      code,
		Message:   message,
		Component: component,
	}
}

// Newf creates a CollectorError with a formatted message
func Newf(code ErrorCode, component, format string, args ...interface{}) *CollectorError {
	return New(code, component, fmt.Sprintf(format, args...))
}

// Wrap creates a CollectorError around an underlying cause
func Wrap(code ErrorCode, component, message string, cause error) *CollectorError {
	return &CollectorError{
		Code:      code,
		Message:   message,
		Component: component,
		Cause:     cause,
	}
}

// HasCode reports whether err or any error it wraps carries the given code
func HasCode(err error, code ErrorCode) bool {
	var ce *CollectorError
	for errors.As(err, &ce) {
		if ce.Code == code {
			return true
		}
		err = ce.Cause
		if err == nil {
			return false
		}
	}
	return false
}
