package investor

import (
	"context"
	"sync"

	id "bondgate/pkg/domain"
	"bondgate/pkg/platform/sentinel"
)

// InMemoryStore keeps investor records in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.InvestorID]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.InvestorID]*Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Owner]; exists {
		return sentinel.ErrAlreadyExists
	}
	s.records[record.Owner] = record.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, owner id.InvestorID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Owner]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.Owner] = record.Clone()
	return nil
}

// Snapshot captures all records for the in-memory transaction boundary.
func (s *InMemoryStore) Snapshot() map[id.InvestorID]*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[id.InvestorID]*Record, len(s.records))
	for k, v := range s.records {
		snap[k] = v.Clone()
	}
	return snap
}

// Restore reverts the store to a previously captured Snapshot.
func (s *InMemoryStore) Restore(snap map[id.InvestorID]*Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = snap
}
