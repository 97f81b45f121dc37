// Package domain holds shared domain primitives: typed record
// identifiers that cannot be cross-assigned by accident.
package domain

import (
	"github.com/google/uuid"

	dErrors "bondgate/pkg/domain-errors"
)

// Typed identifiers. Each is a distinct type over uuid.UUID so the
// compiler rejects passing an investor where a bond is expected.
type (
	// AdminID identifies the administrator who registered a bond.
	AdminID uuid.UUID
	// InvestorID identifies an investor record owner.
	InvestorID uuid.UUID
	// BondID identifies a bond issuance record.
	BondID uuid.UUID
	// DepositID identifies the escrow deposit record paired with a bond.
	DepositID uuid.UUID
)

func (id AdminID) String() string    { return uuid.UUID(id).String() }
func (id InvestorID) String() string { return uuid.UUID(id).String() }
func (id BondID) String() string     { return uuid.UUID(id).String() }
func (id DepositID) String() string  { return uuid.UUID(id).String() }

func (id AdminID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id InvestorID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id BondID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DepositID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", what)
	}
	return u, nil
}

// ParseAdminID validates and returns an AdminID.
func ParseAdminID(s string) (AdminID, error) {
	u, err := parseUUID(s, "admin id")
	if err != nil {
		return AdminID{}, err
	}
	return AdminID(u), nil
}

// ParseInvestorID validates and returns an InvestorID.
func ParseInvestorID(s string) (InvestorID, error) {
	u, err := parseUUID(s, "investor id")
	if err != nil {
		return InvestorID{}, err
	}
	return InvestorID(u), nil
}

// ParseBondID validates and returns a BondID.
func ParseBondID(s string) (BondID, error) {
	u, err := parseUUID(s, "bond id")
	if err != nil {
		return BondID{}, err
	}
	return BondID(u), nil
}

// NewBondID returns a fresh random BondID.
func NewBondID() BondID { return BondID(uuid.New()) }

// NewDepositID returns a fresh random DepositID.
func NewDepositID() DepositID { return DepositID(uuid.New()) }
