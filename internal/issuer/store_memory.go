package issuer

import (
	"context"
	"sync"

	"bondgate/pkg/platform/sentinel"
)

// InMemoryStore keeps the registry in process memory. Used in tests and
// when no database is configured.
type InMemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	issuers     []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return sentinel.ErrAlreadyExists
	}
	s.initialized = true
	s.issuers = make([]Record, 0, MaxIssuers)
	return nil
}

func (s *InMemoryStore) Append(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return sentinel.ErrNotFound
	}
	if len(s.issuers) >= MaxIssuers {
		return sentinel.ErrCapacity
	}
	s.issuers = append(s.issuers, record)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, sentinel.ErrNotFound
	}
	return append([]Record{}, s.issuers...), nil
}

// Snapshot supports the coarse in-memory transaction boundary: callers
// capture the roster before a multi-store mutation and Restore it when
// the mutation fails partway.
func (s *InMemoryStore) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record{}, s.issuers...)
}

// Restore reverts the roster to a previously captured Snapshot.
func (s *InMemoryStore) Restore(issuers []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuers = issuers
}
