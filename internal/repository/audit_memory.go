package repository

import (
	"context"
	"sync"

	"saas-backoffice/internal/model"
)

const defaultAuditCapacity = 1000

// MemoryAuditStore is a bounded ring of the most recent audit entries.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []model.AuditEntry
	next    int
	full    bool
}

func NewMemoryAuditStore(capacity int) *MemoryAuditStore {
	if capacity <= 0 {
		capacity = defaultAuditCapacity
	}
	return &MemoryAuditStore{entries: make([]model.AuditEntry, capacity)}
}

func (s *MemoryAuditStore) Append(_ context.Context, entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.next] = entry
	s.next = (s.next + 1) % len(s.entries)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

func (s *MemoryAuditStore) Recent(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.full {
		size = len(s.entries)
	}

	limit := clampAuditLimit(query.Limit)
	if limit > size {
		limit = size
	}

	out := make([]model.AuditEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.entries)) % len(s.entries)
		out = append(out, s.entries[idx])
	}
	return out, nil
}
