package errors

import (
	"fmt"
)

// ErrorCode represents a specific failure class in the dispatch pipeline.
type ErrorCode string

const (
	// ErrCodeConfigMissing indicates a collaborator's credentials are absent.
	// Only the affected branch degrades; the process keeps running.
	ErrCodeConfigMissing ErrorCode = "CONFIG_MISSING"
	// ErrCodeExtractionParse indicates model output was not valid JSON.
	ErrCodeExtractionParse ErrorCode = "EXTRACTION_PARSE_ERROR"
	// ErrCodeExtractionFieldMissing indicates a required field was absent after parse.
	ErrCodeExtractionFieldMissing ErrorCode = "EXTRACTION_FIELD_MISSING"
	// ErrCodeRemoteCallFailure indicates an outbound collaborator call failed.
	ErrCodeRemoteCallFailure ErrorCode = "REMOTE_CALL_FAILURE"
)

// DispatchError represents a structured error for dispatch operations.
// Every code resolves to a plain-text assistant reply, never a crash.
type DispatchError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *DispatchError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// ConfigMissing creates a config missing error.
func ConfigMissing(msg string) *DispatchError {
	return &DispatchError{Code: ErrCodeConfigMissing, Message: msg}
}

// ExtractionParse creates an extraction parse error.
func ExtractionParse(msg string, cause error) *DispatchError {
	return &DispatchError{Code: ErrCodeExtractionParse, Message: msg, Cause: cause}
}

// ExtractionFieldMissing creates an error for a required field absent after parse.
func ExtractionFieldMissing(field string) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeExtractionFieldMissing,
		Message: fmt.Sprintf("required field missing: %s", field),
	}
}

// RemoteCallFailure creates a remote call failure error.
func RemoteCallFailure(msg string, cause error) *DispatchError {
	return &DispatchError{Code: ErrCodeRemoteCallFailure, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *DispatchError {
	return &DispatchError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if dErr, ok := err.(*DispatchError); ok {
		return dErr.GetCode() == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a DispatchError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if dErr, ok := err.(*DispatchError); ok {
		return dErr.GetCode()
	}
	return defaultCode
}
