package transfer

import (
	"context"
	"sync"

	"bondgate/internal/bond"
	"bondgate/internal/investor"
)

// InMemoryTx serializes transfer operations behind one mutex and rolls
// back via store snapshots when the operation fails partway. Share the
// mutex with the bond module's tx so registration and transfers on the
// same records serialize.
type InMemoryTx struct {
	mu        *sync.Mutex
	bonds     *bond.InMemoryStore
	deposits  *bond.InMemoryDepositStore
	investors *investor.InMemoryStore
}

func NewInMemoryTx(mu *sync.Mutex, bonds *bond.InMemoryStore, deposits *bond.InMemoryDepositStore, investors *investor.InMemoryStore) *InMemoryTx {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &InMemoryTx{mu: mu, bonds: bonds, deposits: deposits, investors: investors}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(s TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	bondSnap := t.bonds.Snapshot()
	depositSnap := t.deposits.Snapshot()
	investorSnap := t.investors.Snapshot()

	err := fn(TxStores{Bonds: t.bonds, Deposits: t.deposits, Investors: t.investors})
	if err != nil {
		t.bonds.Restore(bondSnap)
		t.deposits.Restore(depositSnap)
		t.investors.Restore(investorSnap)
	}
	return err
}
