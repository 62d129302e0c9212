package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"saas-backoffice/internal/model"
	"saas-backoffice/internal/pipeline"
	"saas-backoffice/pkg/apierror"
)

const internalErrorMessage = "internal server error"

var errPanic = errors.New("panic")

// ErrorTranslator must be registered first. It is the only place failure
// bodies are written: structured failures keep their status and message,
// anything else becomes a generic 500 and its text goes to the log only.
type ErrorTranslator struct{}

func NewErrorTranslator() *ErrorTranslator {
	return &ErrorTranslator{}
}

func (t *ErrorTranslator) Name() string { return "error_translator" }

func (t *ErrorTranslator) Handle(c *pipeline.Context) error {
	parent := c.Request.Context()
	t.translate(c, parent, t.run(c))
	return nil
}

func (t *ErrorTranslator) run(c *pipeline.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Error("panic recovered", "error", fmt.Sprintf("%v", recovered), "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", errPanic, recovered)
		}
	}()

	return c.Next()
}

func (t *ErrorTranslator) translate(c *pipeline.Context, parent context.Context, err error) {
	if err == nil {
		return
	}

	requestID := RequestIDFromContext(c.Request.Context())

	if parent.Err() != nil && errors.Is(err, context.Canceled) {
		slog.Debug("request abandoned by client", "request_id", requestID, "path", c.Request.URL.Path)
		return
	}

	if c.Writer.Written() {
		slog.Error("failure after response was committed",
			"request_id", requestID,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"error", err.Error(),
		)
		return
	}

	status := http.StatusInternalServerError
	message := internalErrorMessage

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.Status > 0 {
		status = apiErr.Status
		message = apiErr.Message
	} else {
		// Log unclassified errors so the detail stays out of the response.
		slog.Error("unhandled error",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err.Error(),
		)
	}

	if writeErr := writeJSON(c.Writer, status, model.ErrorResponse{
		Code:    status,
		Message: message,
		Success: false,
	}); writeErr != nil {
		slog.Warn("failed to write error response", "request_id", requestID, "error", writeErr.Error())
	}
}
