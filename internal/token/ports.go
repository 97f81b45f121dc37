// Package token defines the value-movement boundary. The ledger keeps
// balances in base units; callers never see partial moves.
package token

import (
	"context"

	id "bondgate/pkg/domain"
)

// Account addresses one custody holding.
type Account string

// InvestorAccount is the custody account convention for an investor's
// own holdings.
func InvestorAccount(owner id.InvestorID) Account {
	return Account("investor:" + owner.String())
}

// VaultAccount is the escrow custody account paired with a bond.
func VaultAccount(bondID id.BondID) Account {
	return Account("vault:" + bondID.String())
}

// Authority is the signing capability over an account. Derived
// deterministically for vaults, from the live caller for investors.
type Authority [32]byte

// Mover moves base units between accounts. Any error is fatal to the
// operation that requested the move.
type Mover interface {
	Transfer(ctx context.Context, from, to Account, authority Authority, baseUnits uint64) error
}

// Issuer credits freshly issued base units to an account.
type Issuer interface {
	Mint(ctx context.Context, to Account, baseUnits uint64) error
}
