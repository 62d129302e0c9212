package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas-backoffice/internal/model"
	"saas-backoffice/internal/repository"
)

type failingAuditReader struct{}

func (failingAuditReader) Recent(context.Context, model.AuditQuery) ([]model.AuditEntry, error) {
	return nil, errors.New("connection reset")
}

func TestAuditService_Recent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryAuditStore(10)
	require.NoError(t, store.Append(ctx, model.AuditEntry{ID: "a"}))
	require.NoError(t, store.Append(ctx, model.AuditEntry{ID: "b"}))

	entries, err := NewAuditService(store).Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ID)
}

func TestAuditService_WrapsStoreError(t *testing.T) {
	_, err := NewAuditService(failingAuditReader{}).Recent(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query audit log")
}
