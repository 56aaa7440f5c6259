package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation_error"
	ErrorTypeBadParameters  ErrorType = "bad_parameters_error"
	ErrorTypeDatabase       ErrorType = "database_error"
	ErrorTypeAuthentication ErrorType = "authentication_error"
	ErrorTypeNotFound       ErrorType = "not_found_error"
	ErrorTypeRateLimit      ErrorType = "rate_limit_error"
	ErrorTypeServer         ErrorType = "server_error"
)

// Machine-readable codes.
const (
	CodeValidation    = "VALIDATION_FAILED"
	CodeBadParameters = "BAD_PARAMETERS"
	CodeNotFound      = "NOT_FOUND"
	CodeLimitTooBig   = "LIMIT_TOO_BIG"
	CodeRateLimited   = "RATE_LIMITED"
	CodeInvalidJSON   = "INVALID_JSON"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeDatabase      = "DATABASE_ERROR"
)

// Numeric API error codes understood by existing clients.
const (
	ErrorCodeLimitTooBig     = 30
	ErrorCodeNotFound        = 31
	ErrorCodeValidation      = 32
	ErrorCodeTooManyAttempts = 34
	ErrorCodeInvalidJSON     = 37
	ErrorCodeBadParameters   = 41
)

const (
	messageLimitTooBig     = "The limit parameter is too big"
	messageNotFound        = "The resource has not been found."
	messageValidation      = "The given data was invalid."
	messageTooManyAttempts = "Too many attempts, please slow down the request."
	messageInvalidJSON     = "Problems parsing JSON"
	messageBadParameters   = "The parameters are invalid."
)

// CustomError represents a custom application error
type CustomError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code"`
	ErrorCode  int                    `json:"error_code,omitempty"`
	StatusCode int                    `json:"status_code"`
	Messages   []string               `json:"messages,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *CustomError) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same type and code so callers can compare
// against the sentinels below.
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// NewCustomError creates a new custom error
func NewCustomError(errorType ErrorType, message, code string, statusCode int) *CustomError {
	return &CustomError{
		Type:       errorType,
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

// WithCause adds a cause to the error
func (e *CustomError) WithCause(cause error) *CustomError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *CustomError) WithDetail(key string, value interface{}) *CustomError {
	e.Details[key] = value
	return e
}

// WithErrorCode sets the numeric API error code
func (e *CustomError) WithErrorCode(code int) *CustomError {
	e.ErrorCode = code
	return e
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound        = &CustomError{Type: ErrorTypeNotFound, Code: CodeNotFound}
	ErrValidation      = &CustomError{Type: ErrorTypeValidation, Code: CodeValidation}
	ErrBadParameters   = &CustomError{Type: ErrorTypeBadParameters, Code: CodeBadParameters}
	ErrLimitTooBig     = &CustomError{Type: ErrorTypeValidation, Code: CodeLimitTooBig}
	ErrTooManyAttempts = &CustomError{Type: ErrorTypeRateLimit, Code: CodeRateLimited}
)

// ValidationFailed reports field-level failures; messages are already localized.
func ValidationFailed(messages []string) *CustomError {
	e := NewCustomError(ErrorTypeValidation, messageValidation, CodeValidation, http.StatusBadRequest).
		WithErrorCode(ErrorCodeValidation)
	e.Messages = messages
	return e
}

// BadParameters hides a store-level rejection behind a generic client error.
func BadParameters(cause error) *CustomError {
	return NewCustomError(ErrorTypeBadParameters, messageBadParameters, CodeBadParameters, http.StatusBadRequest).
		WithErrorCode(ErrorCodeBadParameters).
		WithCause(cause)
}

// NotFoundError never says whether the resource exists elsewhere.
func NotFoundError(resource string) *CustomError {
	return NewCustomError(ErrorTypeNotFound, messageNotFound, CodeNotFound, http.StatusNotFound).
		WithErrorCode(ErrorCodeNotFound).
		WithDetail("resource", resource)
}

func LimitTooBig(max int) *CustomError {
	return NewCustomError(ErrorTypeValidation, messageLimitTooBig, CodeLimitTooBig, http.StatusBadRequest).
		WithErrorCode(ErrorCodeLimitTooBig).
		WithDetail("max", max)
}

func TooManyAttempts(limit int, window string) *CustomError {
	return NewCustomError(ErrorTypeRateLimit, messageTooManyAttempts, CodeRateLimited, http.StatusTooManyRequests).
		WithErrorCode(ErrorCodeTooManyAttempts).
		WithDetail("limit", limit).
		WithDetail("window", window)
}

func InvalidJSON(cause error) *CustomError {
	return NewCustomError(ErrorTypeValidation, messageInvalidJSON, CodeInvalidJSON, http.StatusBadRequest).
		WithErrorCode(ErrorCodeInvalidJSON).
		WithCause(cause)
}

func UnauthorizedError(message string) *CustomError {
	return NewCustomError(ErrorTypeAuthentication, message, CodeUnauthorized, http.StatusUnauthorized)
}

func DatabaseError(message string, cause error) *CustomError {
	return NewCustomError(ErrorTypeDatabase, message, CodeDatabase, http.StatusInternalServerError).
		WithCause(cause)
}
