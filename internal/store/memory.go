package store

import (
	"context"
	"sync"

	"finboard/internal/core"
)

// MemoryStore keeps the selection in process memory. Useful for tests and
// for runs where persistence across restarts is not wanted.
type MemoryStore struct {
	mu       sync.Mutex
	selected *core.Tenant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil, nil
	}
	t := *s.selected
	return &t, nil
}

func (s *MemoryStore) Save(_ context.Context, t core.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &t
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	return nil
}
