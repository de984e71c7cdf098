// Package platformerrors defines the error taxonomy shared by every layer of
// the conversation service.
package platformerrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypePrecondition ErrorType = "PRECONDITION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL"
	ErrorTypeDatabase     ErrorType = "DATABASE_ERROR"
)

// Layer represents the application layer where the error occurred.
type Layer string

const (
	LayerRepository     Layer = "repository"
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerInfrastructure Layer = "infrastructure"
	LayerWorker         Layer = "worker"
)

// PlatformError carries the error category and originating layer alongside
// the wrapped cause.
type PlatformError struct {
	Type      ErrorType
	Layer     Layer
	Message   string
	Err       error
	Timestamp time.Time
}

func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s] %s: %v", e.Layer, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s] %s", e.Layer, e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// New creates a PlatformError with the given category.
func New(layer Layer, errorType ErrorType, message string) *PlatformError {
	return &PlatformError{
		Type:      errorType,
		Layer:     layer,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Newf creates a PlatformError with a formatted message.
func Newf(layer Layer, errorType ErrorType, format string, args ...any) *PlatformError {
	return New(layer, errorType, fmt.Sprintf(format, args...))
}

// Wrap attaches a cause to a new PlatformError.
func Wrap(layer Layer, errorType ErrorType, err error, message string) *PlatformError {
	pe := New(layer, errorType, message)
	pe.Err = err
	return pe
}

// AsError wraps an arbitrary error, preserving the category of an existing
// PlatformError in the chain.
func AsError(layer Layer, err error, message string) *PlatformError {
	if err == nil {
		return nil
	}
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return Wrap(layer, platformErr.Type, err, message)
	}
	return Wrap(layer, ErrorTypeInternal, err, message)
}

// TypeOf extracts the error category, defaulting to INTERNAL for plain errors.
func TypeOf(err error) ErrorType {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether the error chain carries the given category.
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// HTTPStatus maps error types to HTTP status codes.
func HTTPStatus(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypePrecondition:
		return http.StatusUnprocessableEntity
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
