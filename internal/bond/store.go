package bond

import (
	"context"

	"bondgate/internal/issuer"
	id "bondgate/pkg/domain"
)

// Store persists bond aggregates. Create enforces one bond per
// administrator owner (sentinel.ErrAlreadyExists); lookups fail with
// sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, bondID id.BondID) (*Record, error)
	GetByOwner(ctx context.Context, owner id.AdminID) (*Record, error)
	Update(ctx context.Context, record *Record) error
}

// DepositStore persists the escrow deposit record paired 1:1 with each
// bond.
type DepositStore interface {
	Create(ctx context.Context, deposit *Deposit) error
	GetByBond(ctx context.Context, bondID id.BondID) (*Deposit, error)
}

// TxStores is the record set one registration or maturity transition
// touches atomically.
type TxStores struct {
	Bonds    Store
	Deposits DepositStore
	Issuers  issuer.Store
}

// StoreTx provides the transactional boundary for bond mutations.
// Implementations wrap a database transaction or, in memory, a coarse
// lock with snapshot rollback.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(s TxStores) error) error
}
