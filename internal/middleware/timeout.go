package middleware

import (
	"context"
	"errors"
	"time"

	"saas-backoffice/internal/pipeline"
	"saas-backoffice/pkg/apierror"
)

// Timeout bounds the inner chain with a deadline on the request context.
// Inner units and handlers must observe Request.Context().
type Timeout struct {
	timeout time.Duration
}

func NewTimeout(timeout time.Duration) *Timeout {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Timeout{timeout: timeout}
}

func (m *Timeout) Name() string { return "timeout" }

func (m *Timeout) Handle(c *pipeline.Context) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), m.timeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)

	err := c.Next()
	if err != nil && errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierror.Timeout("request timed out")
	}

	return err
}
