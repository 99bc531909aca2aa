package types

import "fmt"

// ErrorCode represents a unified error code across the service.
type ErrorCode string

// Generation error codes
const (
	ErrValidation          ErrorCode = "VALIDATION"
	ErrRemoteSubmission    ErrorCode = "REMOTE_SUBMISSION"
	ErrPollTimeout         ErrorCode = "POLL_TIMEOUT"
	ErrRemoteFailure       ErrorCode = "REMOTE_FAILURE"
	ErrInsufficientCredit  ErrorCode = "INSUFFICIENT_LOCAL_CREDIT"
	ErrArtifactUnavailable ErrorCode = "ARTIFACT_UNAVAILABLE"
)

// Infrastructure error codes
const (
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrStorage            ErrorCode = "STORAGE"
	ErrUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	ErrUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrNotImplemented     ErrorCode = "NOT_IMPLEMENTED"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
// The HTTPStatus mirrors the remote provider's wire status where one exists,
// so callers can tell a local failure (credits, validation) from a remote one.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsLocal reports whether the error originates on this side of the wire
// (bad input, missing credits, storage) rather than from the remote provider.
// Recovery actions differ: fix configuration versus wait or contact provider.
func IsLocal(err error) bool {
	switch GetErrorCode(err) {
	case ErrValidation, ErrInsufficientCredit, ErrNotFound, ErrStorage, ErrNotImplemented:
		return true
	}
	return false
}
