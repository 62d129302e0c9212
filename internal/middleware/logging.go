package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"saas-backoffice/internal/event"
	"saas-backoffice/internal/model"
	"saas-backoffice/internal/pipeline"
	"saas-backoffice/pkg/apierror"
)

const requestIDHeader = "X-Request-ID"

// AccessLogger logs one record per request and publishes it as an audit
// event. It sits inside the error translator, so for a failing request it
// logs the status the translator is about to write.
type AccessLogger struct {
	events event.Publisher
	now    func() time.Time
}

func NewAccessLogger(events event.Publisher) *AccessLogger {
	return &AccessLogger{events: events, now: time.Now}
}

func (l *AccessLogger) Name() string { return "access_logger" }

func (l *AccessLogger) Handle(c *pipeline.Context) error {
	requestID := c.Request.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Writer.Header().Set(requestIDHeader, requestID)
	c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))

	started := l.now()

	// A panic still produces a record; the translator owns the response.
	defer func() {
		if rec := recover(); rec != nil {
			l.record(c, requestID, started, http.StatusInternalServerError, nil)
			panic(rec)
		}
	}()

	err := c.Next()

	status := c.Writer.Status()
	if err != nil && !c.Writer.Written() {
		status = apierror.StatusOf(err)
	}
	l.record(c, requestID, started, status, err)

	return err
}

func (l *AccessLogger) record(c *pipeline.Context, requestID string, started time.Time, status int, err error) {
	duration := l.now().Sub(started).Milliseconds()

	// The authenticator replaces the request, so claims are visible here
	// once the inner chain has returned.
	operator, role, tenantID := "anonymous", "guest", ""
	if claims, ok := ClaimsFromContext(c.Request.Context()); ok {
		operator, role, tenantID = claims.Username, claims.Role.String(), claims.TenantID
	}

	clientIP := extractClientIP(c.Request)
	attrs := []any{
		"request_id", requestID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"duration_ms", duration,
		"client_ip", clientIP,
		"operator", operator,
		"role", role,
	}
	if tenantID != "" {
		attrs = append(attrs, "tenant_id", tenantID)
	}

	// Add query string for error responses to help reproduce issues.
	if status >= 400 && c.Request.URL.RawQuery != "" {
		attrs = append(attrs, "query", c.Request.URL.RawQuery)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "error_code", apiErr.Code)
	}

	switch {
	case status >= 500:
		slog.Error("request", attrs...)
	case status >= 400:
		slog.Warn("request", attrs...)
	default:
		slog.Info("request", attrs...)
	}

	if l.events != nil {
		occurredAt := started.UTC()
		l.events.Publish(event.Event{
			ID:        uuid.NewString(),
			Type:      event.TypeRequestCompleted,
			Timestamp: occurredAt.Format(time.RFC3339Nano),
			ActorID:   operator,
			Payload: model.AuditEntry{
				ID:         uuid.NewString(),
				Type:       model.LogTypeForStatus(status),
				RequestID:  requestID,
				Method:     c.Request.Method,
				Path:       c.Request.URL.Path,
				Status:     status,
				DurationMS: duration,
				Operator:   operator,
				Role:       role,
				TenantID:   tenantID,
				ClientIP:   clientIP,
				OccurredAt: occurredAt,
			},
		})
	}
}
