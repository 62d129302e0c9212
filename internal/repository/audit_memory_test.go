package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas-backoffice/internal/model"
)

func TestMemoryAuditStore_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAuditStore(3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Append(ctx, model.AuditEntry{ID: fmt.Sprintf("e-%d", i)}))
	}

	entries, err := store.Recent(ctx, model.AuditQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e-5", entries[0].ID)
	assert.Equal(t, "e-4", entries[1].ID)
	assert.Equal(t, "e-3", entries[2].ID)
}

func TestMemoryAuditStore_Limit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAuditStore(10)

	entries, err := store.Recent(ctx, model.AuditQuery{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, entries)

	for i := 1; i <= 4; i++ {
		require.NoError(t, store.Append(ctx, model.AuditEntry{ID: fmt.Sprintf("e-%d", i)}))
	}

	entries, err = store.Recent(ctx, model.AuditQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e-4", entries[0].ID)
}

func TestClampAuditLimit(t *testing.T) {
	assert.Equal(t, defaultAuditLimit, clampAuditLimit(0))
	assert.Equal(t, defaultAuditLimit, clampAuditLimit(-3))
	assert.Equal(t, 7, clampAuditLimit(7))
	assert.Equal(t, maxAuditLimit, clampAuditLimit(5000))
}
