package memory

import (
	"context"
	"sync"
	"time"

	"github.com/biblioteca/maestros-api/internal/core/ports"
)

// idempotencyEntry is pending while movementID is empty.
type idempotencyEntry struct {
	movementID string
	expiresAt  time.Time
}

// IdempotencyStore is the in-process fallback used when no Redis is
// configured. Expired keys are dropped lazily on claim.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]idempotencyEntry
}

const defaultIdempotencyTTL = 24 * time.Hour

// NewIdempotencyStore keeps keys for ttl, 24h when ttl is not positive.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]idempotencyEntry),
	}
}

func (s *IdempotencyStore) Claim(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && !now.After(e.expiresAt) {
		return e.movementID, false, nil
	}
	s.entries[key] = idempotencyEntry{expiresAt: now.Add(s.ttl)}
	return "", true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key, movementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = idempotencyEntry{movementID: movementID, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Release only drops pending claims; a completed key keeps its movement.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && e.movementID == "" {
		delete(s.entries, key)
	}
	return nil
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)
