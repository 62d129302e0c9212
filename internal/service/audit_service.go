package service

import (
	"context"
	"fmt"

	"saas-backoffice/internal/model"
)

type auditReader interface {
	Recent(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, error)
}

type AuditService struct {
	store auditReader
}

func NewAuditService(store auditReader) *AuditService {
	return &AuditService{store: store}
}

func (s *AuditService) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	entries, err := s.store.Recent(ctx, model.AuditQuery{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	return entries, nil
}
