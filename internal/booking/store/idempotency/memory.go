// Package idempotency deduplicates booking commits. A claim on a booking id
// is taken before the reserve call and released only if the call fails, so a
// replayed payment webhook cannot double-submit a commit.
package idempotency

import (
	"context"
	"sync"
	"time"
)

// claimTTL bounds how long a claim is honored. Redis expires keys itself;
// the memory store checks on read.
const claimTTL = 24 * time.Hour

// MemoryStore is a process-local claim set. Suitable for tests and
// single-instance deployments.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[uint64]time.Time
	now    func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		claims: make(map[uint64]time.Time),
		now:    time.Now,
	}
}

func (s *MemoryStore) Claim(_ context.Context, bookingID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at, ok := s.claims[bookingID]; ok && s.now().Sub(at) < claimTTL {
		return false, nil
	}
	s.claims[bookingID] = s.now()
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, bookingID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, bookingID)
	return nil
}
