package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for retrieval and AI operations.
type ErrorCode string

const (
	// ErrCodeProviderUnavailable indicates the embedding or chat provider is
	// not configured or not reachable.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeDimensionMismatch indicates a vector's length disagrees with the
	// index's configured dimension. This is a configuration error and is not retried.
	ErrCodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"
	// ErrCodePartialIngest indicates an embedding sub-batch failure left a
	// document half-indexed. The indexed prefix is kept; no rollback is attempted.
	ErrCodePartialIngest ErrorCode = "PARTIAL_INGEST"
	// ErrCodePersistenceFailure indicates a snapshot save/load error. These are
	// logged and swallowed, never surfaced to ingest/search callers.
	ErrCodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// RetrievalError represents a structured error for retrieval operations.
type RetrievalError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *RetrievalError) GetCode() ErrorCode {
	return e.Code
}

// ProviderUnavailable creates a provider unavailable error.
func ProviderUnavailable(msg string, cause error) *RetrievalError {
	return &RetrievalError{Code: ErrCodeProviderUnavailable, Message: msg, Cause: cause}
}

// DimensionMismatch creates a dimension mismatch error.
func DimensionMismatch(expected, got int) *RetrievalError {
	return &RetrievalError{
		Code:    ErrCodeDimensionMismatch,
		Message: fmt.Sprintf("expected dimension %d, got %d", expected, got),
	}
}

// PartialIngest creates a partial ingest error.
func PartialIngest(documentID string, indexed int, cause error) *RetrievalError {
	return &RetrievalError{
		Code:    ErrCodePartialIngest,
		Message: fmt.Sprintf("document %s left with %d indexed chunks", documentID, indexed),
		Cause:   cause,
	}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *RetrievalError {
	return &RetrievalError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string, cause error) *RetrievalError {
	return &RetrievalError{Code: ErrCodeTimeout, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *RetrievalError {
	return &RetrievalError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if rErr, ok := err.(*RetrievalError); ok {
		return rErr.Code == code
	}
	return false
}
