package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"saas-backoffice/internal/model"
)

type captchaEntry struct {
	answer    string
	expiresAt time.Time
}

// MemoryCaptchaStore keeps captcha answers until they are taken or expire.
type MemoryCaptchaStore struct {
	mu      sync.Mutex
	entries map[string]captchaEntry
	now     func() time.Time
}

func NewMemoryCaptchaStore() *MemoryCaptchaStore {
	return &MemoryCaptchaStore{
		entries: map[string]captchaEntry{},
		now:     time.Now,
	}
}

func (s *MemoryCaptchaStore) Save(_ context.Context, sessionID string, answer string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, id)
		}
	}

	s.entries[sessionID] = captchaEntry{answer: answer, expiresAt: now.Add(ttl)}
	return nil
}

// Take returns the answer and removes it, so each captcha is checked once.
func (s *MemoryCaptchaStore) Take(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return "", fmt.Errorf("%w: %s", model.ErrCaptchaNotFound, sessionID)
	}
	delete(s.entries, sessionID)

	if !entry.expiresAt.After(s.now()) {
		return "", fmt.Errorf("%w: %s expired", model.ErrCaptchaNotFound, sessionID)
	}
	return entry.answer, nil
}
