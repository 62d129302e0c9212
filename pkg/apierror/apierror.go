package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a failure that carries its own client-facing status and message.
// Code is a machine code for logs; it is not part of the response body.
type APIError struct {
	Status  int    `json:"code"`
	Message string `json:"message"`
	Code    string `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(status int, code string, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func BadRequest(message string) *APIError {
	return New(http.StatusBadRequest, "BAD_REQUEST", message)
}

func Validation(message string) *APIError {
	return New(http.StatusBadRequest, "VALIDATION_FAILED", message)
}

func Unauthorized(message string) *APIError {
	return New(http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(message string) *APIError {
	return New(http.StatusForbidden, "FORBIDDEN", message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, "NOT_FOUND", message)
}

func MethodNotAllowed(message string) *APIError {
	return New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", message)
}

func TooManyRequests(message string) *APIError {
	return New(http.StatusTooManyRequests, "RATE_LIMITED", message)
}

func Timeout(message string) *APIError {
	return New(http.StatusServiceUnavailable, "REQUEST_TIMEOUT", message)
}

func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// StatusOf reports the HTTP status a failure will be rendered with.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status > 0 {
		return apiErr.Status
	}

	return http.StatusInternalServerError
}
