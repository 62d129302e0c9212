package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"saas-backoffice/internal/model"
)

// MemoryUserStore keeps accounts in process memory. It is the store used
// when no database is configured.
type MemoryUserStore struct {
	mu         sync.RWMutex
	byID       map[string]model.User
	byUsername map[string]string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:       map[string]model.User{},
		byUsername: map[string]string{},
	}
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return model.User{}, fmt.Errorf("%w: %s", model.ErrUserNotFound, id)
	}
	return user, nil
}

func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[usernameKey(username)]
	if !ok {
		return model.User{}, fmt.Errorf("%w: %s", model.ErrUserNotFound, username)
	}
	return s.byID[id], nil
}

func (s *MemoryUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usernameKey(u.Username)
	if _, exists := s.byUsername[key]; exists {
		return nil
	}

	s.byID[u.ID] = u
	s.byUsername[key] = u.ID
	return nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]model.AuthUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.AuthUser, 0, len(s.byID))
	for _, user := range s.byID {
		users = append(users, user.Public())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *MemoryUserStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
