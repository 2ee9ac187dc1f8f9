// Package types provides common error types for proper error propagation
package types

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes across the application
type ErrorCode string

const (
	// General errors
	ErrorCodeUnknown      ErrorCode = "UNKNOWN_ERROR"
	ErrorCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrorCodeConflict     ErrorCode = "CONFLICT"
	ErrorCodeTimeout      ErrorCode = "TIMEOUT"
	ErrorCodeCancelled    ErrorCode = "CANCELLED"
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden    ErrorCode = "FORBIDDEN"

	// Upstream catalog errors
	ErrorCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrorCodeUpstreamError       ErrorCode = "UPSTREAM_ERROR"

	// Background work
	ErrorCodeQueueFull ErrorCode = "QUEUE_FULL"
)

// ErrorSeverity indicates the severity of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// AppError represents a structured error with metadata
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Severity   ErrorSeverity          `json:"severity"`
	HTTPStatus int                    `json:"http_status"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Retryable  bool                   `json:"retryable"`
	RetryAfter *time.Duration         `json:"retry_after,omitempty"`

	// Headers are extra response headers, e.g. WWW-Authenticate
	Headers map[string]string `json:"-"`

	Cause       error  `json:"-"`
	CauseString string `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithHeader adds a response header to send with the error
func (e *AppError) WithHeader(key, value string) *AppError {
	if e.Headers == nil {
		e.Headers = make(map[string]string)
	}
	e.Headers[key] = value
	return e
}

// WithRetryAfter marks the error as retryable after a specific duration
func (e *AppError) WithRetryAfter(duration time.Duration) *AppError {
	e.Retryable = true
	e.RetryAfter = &duration
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Severity:   SeverityError,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewAppErrorWithCause creates an error with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, httpStatus int, cause error) *AppError {
	err := NewAppError(code, message, httpStatus)
	err.Cause = cause
	if cause != nil {
		err.CauseString = cause.Error()
	}
	return err
}

// Common error constructors

// NewValidationError creates a validation error
func NewValidationError(message string, details ...string) *AppError {
	err := NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
	if len(details) > 0 {
		err.Details = details[0]
	}
	err.Severity = SeverityWarning
	return err
}

// NewNotFoundError creates a not found error. The message reads "<Resource> not found".
func NewNotFoundError(resource string, id string) *AppError {
	err := NewAppError(
		ErrorCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
	).WithContext("resource", resource)
	if id != "" {
		err.WithContext("id", id)
	}
	err.Severity = SeverityInfo
	return err
}

// NewConflictError reports a uniqueness clash on client supplied data.
// Kept on 400 to match the registration contract clients already rely on.
func NewConflictError(message string) *AppError {
	err := NewAppError(ErrorCodeConflict, message, http.StatusBadRequest)
	err.Severity = SeverityWarning
	return err
}

// NewUnauthorizedError creates an authentication failure
func NewUnauthorizedError(message string) *AppError {
	err := NewAppError(ErrorCodeUnauthorized, message, http.StatusUnauthorized)
	err.Severity = SeverityWarning
	return err.WithHeader("WWW-Authenticate", "Bearer")
}

// NewForbiddenError creates an authorization failure
func NewForbiddenError(message string) *AppError {
	err := NewAppError(ErrorCodeForbidden, message, http.StatusForbidden)
	err.Severity = SeverityWarning
	return err
}

// NewUpstreamUnavailableError reports that the catalog provider could not be reached
func NewUpstreamUnavailableError(cause error) *AppError {
	msg := "TMDB API request error"
	if cause != nil {
		msg = fmt.Sprintf("TMDB API request error: %s", cause.Error())
	}
	err := NewAppErrorWithCause(ErrorCodeUpstreamUnavailable, msg, http.StatusServiceUnavailable, cause)
	err.Retryable = true
	return err
}

// NewUpstreamError reports a non-2xx answer from the catalog provider.
// The provider status is passed through to the client.
func NewUpstreamError(status int, body string) *AppError {
	httpStatus := status
	if httpStatus < 400 || httpStatus > 599 {
		httpStatus = http.StatusBadGateway
	}
	err := NewAppError(ErrorCodeUpstreamError, fmt.Sprintf("TMDB API error: %s", body), httpStatus)
	err.WithContext("upstream_status", status)
	return err
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeInternal, message, http.StatusInternalServerError, cause)
	err.Severity = SeverityCritical
	return err
}

// Helper functions

// HTTPStatusFromErrorCode maps error codes to HTTP status codes
func HTTPStatusFromErrorCode(code ErrorCode) int {
	switch code {
	case ErrorCodeValidation, ErrorCodeConflict:
		return http.StatusBadRequest
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeCancelled:
		return http.StatusRequestTimeout
	case ErrorCodeUpstreamUnavailable, ErrorCodeQueueFull:
		return http.StatusServiceUnavailable
	case ErrorCodeUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the error code carried by err, or ErrorCodeUnknown
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeUnknown
}

// IsNotFound reports whether err carries ErrorCodeNotFound
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrorCodeNotFound
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
