package transfer

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore claims transfer request keys so a retried request
// is rejected instead of applied twice.
type IdempotencyStore interface {
	// Reserve claims the key. False means the key is already held.
	Reserve(ctx context.Context, key string) (bool, error)
	// Release frees a key claimed by an operation that did not commit.
	Release(ctx context.Context, key string) error
}

// InMemoryIdempotencyStore keeps claimed keys in process memory.
type InMemoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{keys: make(map[string]struct{})}
}

func (s *InMemoryIdempotencyStore) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.keys[key]; held {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// idempotencyTTL bounds how long a completed request blocks its key in
// the Redis-backed store.
const idempotencyTTL = 24 * time.Hour
