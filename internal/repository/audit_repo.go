package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"saas-backoffice/internal/model"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, entry model.AuditEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries
		 (id, log_type, request_id, method, path, status, duration_ms,
		  operator, role, tenant_id, client_ip, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.Type, entry.RequestID, entry.Method, entry.Path, entry.Status, entry.DurationMS,
		entry.Operator, entry.Role, entry.TenantID, entry.ClientIP, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *AuditRepository) Recent(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, log_type, request_id, method, path, status, duration_ms,
		        operator, role, tenant_id, client_ip, occurred_at
		 FROM audit_entries
		 ORDER BY occurred_at DESC
		 LIMIT $1`, clampAuditLimit(query.Limit))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.Type, &e.RequestID, &e.Method, &e.Path, &e.Status, &e.DurationMS,
			&e.Operator, &e.Role, &e.TenantID, &e.ClientIP, &e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.OccurredAt = e.OccurredAt.UTC()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func clampAuditLimit(limit int) int {
	if limit <= 0 {
		return defaultAuditLimit
	}
	if limit > maxAuditLimit {
		return maxAuditLimit
	}
	return limit
}
