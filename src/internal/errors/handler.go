package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
)

// ErrorHandler turns errors returned by handlers into API error payloads
type ErrorHandler struct {
	config     *viper.Viper
	production bool
	logger     *ErrorLogger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(config *viper.Viper, logger *ErrorLogger) *ErrorHandler {
	return &ErrorHandler{
		config:     config,
		production: config.GetString("environment") == "production",
		logger:     logger,
	}
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error      string                 `json:"error"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	ErrorCode  int                    `json:"error_code,omitempty"`
	Messages   []string               `json:"messages,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	RequestID  string                 `json:"request_id,omitempty"`
	Path       string                 `json:"path,omitempty"`
	Method     string                 `json:"method,omitempty"`
	StatusCode int                    `json:"status_code"`
}

// HTTPErrorHandler handles HTTP errors for Echo
func (h *ErrorHandler) HTTPErrorHandler(err error, c echo.Context) {
	var (
		code      = http.StatusInternalServerError
		message   = "Internal server error"
		details   map[string]interface{}
		errCode   = "INTERNAL_ERROR"
		errorCode int
		messages  []string
	)

	// Extract request information
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = c.Request().Header.Get(echo.HeaderXRequestID)
	}

	path := c.Request().URL.Path
	method := c.Request().Method

	var (
		customErr *CustomError
		httpErr   *echo.HTTPError
		syntaxErr *json.SyntaxError
	)

	switch {
	case errors.As(err, &customErr):
		code = customErr.StatusCode
		message = customErr.Message
		errCode = customErr.Code
		errorCode = customErr.ErrorCode
		messages = customErr.Messages
		if len(customErr.Details) > 0 {
			details = customErr.Details
		}

		if customErr.Cause != nil || code >= http.StatusInternalServerError {
			h.logger.LogError(c.Request().Context(), customErr, map[string]interface{}{
				"request_id": requestID,
				"path":       path,
				"method":     method,
				"ip":         c.RealIP(),
			})
		}

	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)

		// Map common HTTP errors to our error codes
		switch code {
		case http.StatusNotFound:
			errCode = CodeNotFound
			errorCode = ErrorCodeNotFound
			message = messageNotFound
		case http.StatusMethodNotAllowed:
			errCode = "METHOD_NOT_ALLOWED"
			message = "Method not allowed"
		case http.StatusBadRequest:
			errCode = "BAD_REQUEST"
		case http.StatusUnauthorized:
			errCode = CodeUnauthorized
		case http.StatusForbidden:
			errCode = "FORBIDDEN"
			message = "Access denied"
		case http.StatusTooManyRequests:
			errCode = CodeRateLimited
			errorCode = ErrorCodeTooManyAttempts
		}

	case errors.As(err, &syntaxErr):
		code = http.StatusBadRequest
		message = messageInvalidJSON
		errCode = CodeInvalidJSON
		errorCode = ErrorCodeInvalidJSON
		details = map[string]interface{}{"offset": syntaxErr.Offset}

	default:
		// Log unexpected errors with stack trace
		h.logger.LogError(c.Request().Context(), err, map[string]interface{}{
			"request_id": requestID,
			"path":       path,
			"method":     method,
			"stack":      string(debug.Stack()),
		})
	}

	// Don't expose internal errors in production
	if h.production && code >= http.StatusInternalServerError {
		message = "Internal server error"
		details = map[string]interface{}{
			"error_id": requestID,
		}
	}

	errorResponse := ErrorResponse{
		Error:      message,
		Message:    message,
		Code:       errCode,
		ErrorCode:  errorCode,
		Messages:   messages,
		Details:    details,
		Timestamp:  time.Now().UTC(),
		RequestID:  requestID,
		Path:       path,
		Method:     method,
		StatusCode: code,
	}

	// Send error response
	if !c.Response().Committed {
		if method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, errorResponse)
		}
		if err != nil {
			h.logger.LogError(c.Request().Context(), fmt.Errorf("failed to send error response: %w", err), nil)
		}
	}
}

// RecoverMiddleware provides panic recovery
func (h *ErrorHandler) RecoverMiddleware() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			h.logger.LogError(c.Request().Context(), err, map[string]interface{}{
				"panic_stack": string(stack),
				"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
				"path":        c.Request().URL.Path,
				"method":      c.Request().Method,
			})
			return err
		},
	})
}
