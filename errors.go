package eventstream

import (
	"errors"
	"fmt"
)

// Error represents an eventstream library error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes for eventstream operations.
const (
	// ErrCodeConfiguration indicates invalid service configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeValidation indicates an event failed structural validation.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeSerialization indicates JSON encoding or decoding failed.
	ErrCodeSerialization = "SERIALIZATION_ERROR"

	// ErrCodeTransport indicates a broker operation failed.
	ErrCodeTransport = "TRANSPORT_ERROR"

	// ErrCodeNotInitialized indicates an operation was attempted before
	// Initialize completed.
	ErrCodeNotInitialized = "NOT_INITIALIZED"

	// ErrCodeHandler indicates an event handler exhausted its retries.
	ErrCodeHandler = "HANDLER_ERROR"

	// ErrCodeDatabase indicates a dead-letter archive operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"
)

// Common errors.
var (
	// ErrNotInitialized is returned when Subscribe or Unsubscribe is called
	// before Initialize.
	ErrNotInitialized = &Error{
		Code:    ErrCodeNotInitialized,
		Message: "subscriber is not initialized",
	}

	// ErrNoData is returned when an archive query returns no results.
	// This is not necessarily an error condition in all cases.
	ErrNoData = &Error{
		Code:    ErrCodeDatabase,
		Message: "no data found",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// IsCode checks whether an error carries the given eventstream error code.
func IsCode(err error, code string) bool {
	var esErr *Error
	if errors.As(err, &esErr) {
		return esErr.Code == code
	}
	return false
}

// IsNoData checks if an error is ErrNoData.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}
