package bond

import (
	"context"
	"sync"

	"bondgate/internal/issuer"
	id "bondgate/pkg/domain"
	"bondgate/pkg/platform/sentinel"
)

// InMemoryStore keeps bond aggregates in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.BondID]*Record
	byOwner map[id.AdminID]id.BondID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[id.BondID]*Record),
		byOwner: make(map[id.AdminID]id.BondID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byOwner[record.Owner]; exists {
		return sentinel.ErrAlreadyExists
	}
	if _, exists := s.byID[record.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	s.byID[record.ID] = record.Clone()
	s.byOwner[record.Owner] = record.ID
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, bondID id.BondID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.byID[bondID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) GetByOwner(_ context.Context, owner id.AdminID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bondID, ok := s.byOwner[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[bondID].Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[record.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[record.ID] = record.Clone()
	return nil
}

type bondSnapshot struct {
	byID    map[id.BondID]*Record
	byOwner map[id.AdminID]id.BondID
}

// Snapshot captures all records for the in-memory transaction boundary.
func (s *InMemoryStore) Snapshot() bondSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := bondSnapshot{
		byID:    make(map[id.BondID]*Record, len(s.byID)),
		byOwner: make(map[id.AdminID]id.BondID, len(s.byOwner)),
	}
	for k, v := range s.byID {
		snap.byID[k] = v.Clone()
	}
	for k, v := range s.byOwner {
		snap.byOwner[k] = v
	}
	return snap
}

// Restore reverts the store to a previously captured Snapshot.
func (s *InMemoryStore) Restore(snap bondSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = snap.byID
	s.byOwner = snap.byOwner
}

// InMemoryDepositStore keeps deposit records in process memory.
type InMemoryDepositStore struct {
	mu     sync.RWMutex
	byBond map[id.BondID]*Deposit
}

func NewInMemoryDepositStore() *InMemoryDepositStore {
	return &InMemoryDepositStore{byBond: make(map[id.BondID]*Deposit)}
}

func (s *InMemoryDepositStore) Create(_ context.Context, deposit *Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byBond[deposit.BondID]; exists {
		return sentinel.ErrAlreadyExists
	}
	d := *deposit
	s.byBond[deposit.BondID] = &d
	return nil
}

func (s *InMemoryDepositStore) GetByBond(_ context.Context, bondID id.BondID) (*Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	deposit, ok := s.byBond[bondID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	d := *deposit
	return &d, nil
}

// Snapshot captures all deposits for the in-memory transaction boundary.
func (s *InMemoryDepositStore) Snapshot() map[id.BondID]*Deposit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[id.BondID]*Deposit, len(s.byBond))
	for k, v := range s.byBond {
		d := *v
		snap[k] = &d
	}
	return snap
}

// Restore reverts the store to a previously captured Snapshot.
func (s *InMemoryDepositStore) Restore(snap map[id.BondID]*Deposit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byBond = snap
}

// InMemoryTx serializes multi-store mutations behind one mutex and
// rolls back via snapshots when the mutation fails partway. The mutex
// may be shared with the transfer engine's tx so operations on the same
// records serialize across modules.
type InMemoryTx struct {
	mu       *sync.Mutex
	bonds    *InMemoryStore
	deposits *InMemoryDepositStore
	issuers  *issuer.InMemoryStore
}

func NewInMemoryTx(mu *sync.Mutex, bonds *InMemoryStore, deposits *InMemoryDepositStore, issuers *issuer.InMemoryStore) *InMemoryTx {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &InMemoryTx{mu: mu, bonds: bonds, deposits: deposits, issuers: issuers}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(s TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	bondSnap := t.bonds.Snapshot()
	depositSnap := t.deposits.Snapshot()
	issuerSnap := t.issuers.Snapshot()

	err := fn(TxStores{Bonds: t.bonds, Deposits: t.deposits, Issuers: t.issuers})
	if err != nil {
		t.bonds.Restore(bondSnap)
		t.deposits.Restore(depositSnap)
		t.issuers.Restore(issuerSnap)
	}
	return err
}
