// Package store provides the institution repository implementations.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"certiva/internal/domain"
	"certiva/internal/verification/ports"
)

// InMemoryStore keeps institutions in a map. Safe for concurrent use.
type InMemoryStore struct {
	mu           sync.RWMutex
	institutions map[uuid.UUID]domain.Institution
}

// NewInMemoryStore returns an empty in-memory institution store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{institutions: make(map[uuid.UUID]domain.Institution)}
}

// Save inserts or replaces an institution by ID.
func (s *InMemoryStore) Save(_ context.Context, institution domain.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.institutions[institution.ID] = institution
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	institution, ok := s.institutions[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &institution, nil
}
