package audit

import (
	"context"
	"sync"
)

// Store is an append-only audit sink. Implementations must be safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// InMemoryStore keeps events in a slice. Used by tests and dev mode.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemoryStore returns an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *InMemoryStore) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}
