package domain

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput      = "INVALID_INPUT"
	ErrLibraryLoad       = "LIBRARY_LOAD_ERROR"
	ErrUnsupportedFormat = "UNSUPPORTED_DOCUMENT"
	ErrRateLimit         = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer    = "INTERNAL_SERVER_ERROR"
	ErrValidation        = "VALIDATION_ERROR"
)

// ErrUnsupportedDocument is returned by decoders for formats they cannot read
var ErrUnsupportedDocument = errors.New("unsupported document type")

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// LoadError reports a template library that could not be read or is malformed.
// It is fatal for the assembly call that needed the library.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loading template library %q: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("loading template library %q: %s", e.Source, e.Reason)
}

// Unwrap exposes the underlying cause
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewLoadError creates a new LoadError
func NewLoadError(source, reason string, err error) *LoadError {
	return &LoadError{
		Source: source,
		Reason: reason,
		Err:    err,
	}
}

// IsLoadError reports whether err is or wraps a LoadError
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
