// Package api holds the HTTP helpers shared by every module's handlers
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/types"
	"gorm.io/gorm"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	Success bool         `json:"success"`
}

// ErrorDetails describes a failure to the client
type ErrorDetails struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Retryable  bool                   `json:"retryable"`
	RetryAfter int                    `json:"retry_after,omitempty"` // seconds
	Context    map[string]interface{} `json:"context,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
}

// RespondWithError aborts the request with the error's status and body.
// Errors that are not AppErrors are classified first.
func RespondWithError(c *gin.Context, err error) {
	appErr := classify(err)
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}

	details := ErrorDetails{
		Code:      string(appErr.Code),
		Message:   appErr.Message,
		Details:   appErr.Details,
		Retryable: appErr.Retryable,
		Context:   appErr.Context,
		RequestID: requestID,
	}
	if appErr.RetryAfter != nil {
		details.RetryAfter = int(appErr.RetryAfter.Seconds())
		c.Header("Retry-After", strconv.Itoa(details.RetryAfter))
	}
	for k, v := range appErr.Headers {
		c.Header(k, v)
	}

	logAppError(c, appErr, requestID)
	c.AbortWithStatusJSON(appErr.HTTPStatus, ErrorResponse{Error: details})
}

// RespondWithMessage sends the {success, message} body
func RespondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, types.MessageResponse{Success: true, Message: message})
}

func classify(err error) *types.AppError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		e := types.NewAppErrorWithCause(types.ErrorCodeNotFound, "record not found", http.StatusNotFound, err)
		e.Severity = types.SeverityInfo
		return e
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewAppErrorWithCause(types.ErrorCodeTimeout, "request timed out", http.StatusGatewayTimeout, err)
	case errors.Is(err, context.Canceled):
		e := types.NewAppErrorWithCause(types.ErrorCodeCancelled, "request cancelled", http.StatusRequestTimeout, err)
		e.Severity = types.SeverityInfo
		return e
	}
	return types.NewAppErrorWithCause(types.ErrorCodeInternal, err.Error(), http.StatusInternalServerError, err)
}

func logAppError(c *gin.Context, err *types.AppError, requestID string) {
	fields := []interface{}{
		"code", err.Code,
		"status", err.HTTPStatus,
		"path", c.FullPath(),
		"request_id", requestID,
	}
	if err.Details != "" {
		fields = append(fields, "details", err.Details)
	}
	if err.Cause != nil {
		fields = append(fields, "cause", err.Cause.Error())
	}
	for k, v := range err.Context {
		fields = append(fields, k, v)
	}

	switch err.Severity {
	case types.SeverityInfo:
		logger.Debug(err.Message, fields...)
	case types.SeverityWarning:
		logger.Warn(err.Message, fields...)
	default:
		logger.Error(err.Message, fields...)
	}
}

// ErrorMiddleware turns a panic in a handler into a 500 response
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			logger.Error("panic in handler", "method", c.Request.Method, "path", c.Request.URL.Path, "error", cause)
			RespondWithError(c, types.NewInternalError("panic recovered", cause))
		}()
		c.Next()
	}
}
