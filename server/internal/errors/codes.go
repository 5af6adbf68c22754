// Package errors defines the coded error type shared by the service layer
// and the HTTP handlers. Handlers map codes to HTTP statuses in one place
// instead of inspecting error strings.
package errors

import (
	"fmt"
)

// ErrorCode classifies a service failure.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the target record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodePermissionDenied indicates the caller does not own the record.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeStorageFailure indicates the record store failed.
	ErrCodeStorageFailure ErrorCode = "STORAGE_FAILURE"
	// ErrCodeLLMUnavailable indicates the LLM service is not available.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// CodedError is a structured error with a classification code.
type CodedError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CodedError) Unwrap() error {
	return e.Cause
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *CodedError {
	return &CodedError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *CodedError {
	return &CodedError{Code: ErrCodeNotFound, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *CodedError {
	return &CodedError{Code: ErrCodeUnauthorized, Message: msg}
}

// PermissionDenied creates a permission denied error.
func PermissionDenied(msg string) *CodedError {
	return &CodedError{Code: ErrCodePermissionDenied, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *CodedError {
	return &CodedError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// StorageFailure wraps a record store failure. The cause is preserved so the
// original driver error stays inspectable.
func StorageFailure(msg string, cause error) *CodedError {
	return &CodedError{Code: ErrCodeStorageFailure, Message: msg, Cause: cause}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string, cause error) *CodedError {
	return &CodedError{Code: ErrCodeLLMUnavailable, Message: msg, Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *CodedError {
	return &CodedError{Code: ErrCodeTimeout, Message: msg}
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a CodedError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if coded, ok := err.(*CodedError); ok {
		return coded.Code
	}
	return defaultCode
}
