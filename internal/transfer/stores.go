package transfer

import (
	"context"

	"bondgate/internal/bond"
	"bondgate/internal/investor"
)

// TxStores is the record set one transfer operation may touch. Buy
// mutates a bond and one investor; sell mutates two investors; redeem
// mutates a bond, one investor, and reads the deposit.
type TxStores struct {
	Bonds     bond.Store
	Deposits  bond.DepositStore
	Investors investor.Store
}

// StoreTx provides the all-or-nothing boundary of a transfer operation:
// every read, counter mutation, and the delegated movement either
// commit together or leave no observable state.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(s TxStores) error) error
}
