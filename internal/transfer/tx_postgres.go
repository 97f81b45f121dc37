package transfer

import (
	"context"
	"fmt"

	"bondgate/internal/bond"
	"bondgate/internal/investor"
	"bondgate/internal/platform/postgres"
)

// PostgresTx runs a transfer operation inside one database transaction
// with every store view bound to the same pgx.Tx.
type PostgresTx struct {
	pool postgres.TxBeginner
}

func NewPostgresTx(pool postgres.TxBeginner) *PostgresTx {
	return &PostgresTx{pool: pool}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(s TxStores) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stores := TxStores{
		Bonds:     bond.NewPostgresStore(tx),
		Deposits:  bond.NewPostgresDepositStore(tx),
		Investors: investor.NewPostgresStore(tx),
	}
	if err := fn(stores); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
