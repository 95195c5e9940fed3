package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeDataset       ErrorType = "dataset"
	ErrorTypeDrift         ErrorType = "drift"
	ErrorTypeSchema        ErrorType = "schema"
	ErrorTypeComputation   ErrorType = "computation"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeJob           ErrorType = "job"
	ErrorTypeInternal      ErrorType = "internal"
)

// Error codes
const (
	CodeInvalidDataset    = "INVALID_DATASET"
	CodeEmptyIntersection = "EMPTY_INTERSECTION"
	CodeUnsupportedType   = "UNSUPPORTED_TYPE"
	CodeComputationError  = "COMPUTATION_ERROR"

	CodeDataNotFound     = "DATA_NOT_FOUND"
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeNotConnected     = "NOT_CONNECTED"
	CodeWriteFailed      = "WRITE_FAILED"
	CodeReadFailed       = "READ_FAILED"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeUnsupportedStore = "UNSUPPORTED_STORE"

	CodeJobCancelled  = "JOB_CANCELLED"
	CodeInternalError = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. Any AppError with the same type and code matches.
var (
	ErrInvalidDataset    = NewAppError(ErrorTypeDataset, CodeInvalidDataset, "invalid dataset")
	ErrEmptyIntersection = NewAppError(ErrorTypeDrift, CodeEmptyIntersection, "datasets share no comparable column")
	ErrUnsupportedType   = NewAppError(ErrorTypeSchema, CodeUnsupportedType, "unsupported column type")
	ErrComputation       = NewAppError(ErrorTypeComputation, CodeComputationError, "numeric computation failed")

	ErrDataNotFound         = NewAppError(ErrorTypeStorage, CodeDataNotFound, "data not found")
	ErrNotConnected         = NewAppError(ErrorTypeStorage, CodeNotConnected, "storage not connected")
	ErrInvalidConfiguration = NewAppError(ErrorTypeConfiguration, CodeInvalidConfig, "invalid configuration")

	ErrJobCancelled = NewAppError(ErrorTypeJob, CodeJobCancelled, "job cancelled")
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewInvalidDatasetError reports an empty or schema-less dataset
func NewInvalidDatasetError(details string) *AppError {
	return NewAppError(ErrorTypeDataset, CodeInvalidDataset, ErrInvalidDataset.Message).WithDetails(details)
}

// NewEmptyIntersectionError reports a drift request with nothing to compare
func NewEmptyIntersectionError(details string) *AppError {
	return NewAppError(ErrorTypeDrift, CodeEmptyIntersection, ErrEmptyIntersection.Message).WithDetails(details)
}

// NewUnsupportedTypeError reports a column type outside the known set
func NewUnsupportedTypeError(details string) *AppError {
	return NewAppError(ErrorTypeSchema, CodeUnsupportedType, ErrUnsupportedType.Message).WithDetails(details)
}

// NewComputationError reports a numeric failure such as a non-finite statistic
func NewComputationError(details string) *AppError {
	return NewAppError(ErrorTypeComputation, CodeComputationError, ErrComputation.Message).WithDetails(details)
}

// NewStorageError creates a storage error
func NewStorageError(code, message string) *AppError {
	return NewAppError(ErrorTypeStorage, code, message)
}

// NewNotFoundError reports a missing dataset or report
func NewNotFoundError(kind, id string) *AppError {
	return NewAppError(ErrorTypeStorage, CodeDataNotFound, ErrDataNotFound.Message).
		WithDetails(fmt.Sprintf("%s '%s' not found", kind, id))
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, CodeInvalidConfig, message)
}

// NewCancelledError wraps a context error raised while a check was running
func NewCancelledError(cause error) *AppError {
	return WrapError(cause, ErrorTypeJob, CodeJobCancelled, ErrJobCancelled.Message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternalError, message)
}

// Code returns the AppError code carried by err, or CodeInternalError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
