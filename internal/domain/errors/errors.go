package errors

import (
	"errors"
	"net/http"
	"time"
)

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrWebhookExpired     = errors.New("webhook expired")
	ErrUsageExceeded      = errors.New("webhook usage exceeded")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrDispatchFailed     = errors.New("dispatch failed")
)

// AppError represents an application error with an HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	// RetryAfter is set on rate-limited errors and rendered as the
	// Retry-After header.
	RetryAfter time.Duration `json:"-"`
}

// WithRetryAfter returns a copy carrying a retry hint.
func (e *AppError) WithRetryAfter(d time.Duration) *AppError {
	clone := *e
	clone.RetryAfter = d
	return &clone
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, "ERR_NOT_FOUND", message, ErrNotFound)
}

func Gone(message string) *AppError {
	return NewAppError(http.StatusGone, "ERR_GONE", message, ErrWebhookExpired)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, "ERR_VALIDATION", message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, "ERR_UNAUTHORIZED", message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, "ERR_FORBIDDEN", message, ErrForbidden)
}

func RateLimited(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, "ERR_RATE_LIMITED", message, ErrRateLimited)
}

func PayloadTooLarge(message string) *AppError {
	return NewAppError(http.StatusRequestEntityTooLarge, "ERR_PAYLOAD_TOO_LARGE", message, ErrPayloadTooLarge)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, "ERR_CONFLICT", message, ErrAlreadyExists)
}

func DispatchFailure(message string, err error) *AppError {
	if err == nil {
		err = ErrDispatchFailed
	}
	return NewAppError(http.StatusInternalServerError, "ERR_DISPATCH_FAILED", message, err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "ERR_INTERNAL", "internal server error", err)
}
