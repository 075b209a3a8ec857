package audit

import (
	"context"
	"sync"
)

// Store is the append-only sink audit events land in.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAction(ctx context.Context, action string) ([]Event, error)
}

// MemoryStore keeps events in memory. Suitable for tests and single-process
// deployments; a durable sink can replace it behind the same interface.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListByAction(_ context.Context, action string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out, nil
}
