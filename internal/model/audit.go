package model

import "time"

const (
	LogTypeError   = "error"
	LogTypeWarning = "warning"
	LogTypeSuccess = "success"
	LogTypeInfo    = "info"
)

// AuditEntry is one completed request as recorded by the access logger.
type AuditEntry struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Operator   string    `json:"operator"`
	Role       string    `json:"role"`
	TenantID   string    `json:"tenant_id,omitempty"`
	ClientIP   string    `json:"client_ip"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AuditQuery struct {
	Limit int
}

// LogTypeForStatus classifies a response status for the audit log.
func LogTypeForStatus(status int) string {
	switch {
	case status >= 500:
		return LogTypeError
	case status >= 400:
		return LogTypeWarning
	case status >= 200 && status < 300:
		return LogTypeSuccess
	default:
		return LogTypeInfo
	}
}
