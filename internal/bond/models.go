package bond

import (
	"time"

	"bondgate/internal/issuer"
	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
)

// TypeOfBond enumerates the supported issuance kinds.
type TypeOfBond uint8

const (
	// TypeFixedCoupon is a fixed coupon treasury bond.
	TypeFixedCoupon TypeOfBond = 1
	// TypeInfrastructure is an infrastructure bond.
	TypeInfrastructure TypeOfBond = 2
)

const (
	// MaxIssueNoLength is the byte ceiling for a bond issue number.
	MaxIssueNoLength = 20
	// MaxDateLength is the byte ceiling for value/redemption dates.
	MaxDateLength = 20
	// MinTenor and MaxTenor bound the maturity period in years.
	MinTenor = 2
	MaxTenor = 30
	// MaxInvestors bounds the participation roster on one issuance.
	MaxInvestors = 10
)

// Record is the bond aggregate: one issuance's terms and outstanding
// totals.
//
// Invariants:
//   - TotalAmountsAccepted <= TotalAmountsOffered (enforced on buy)
//   - TotalAmountsAccepted is the single funds-outstanding counter:
//     incremented by buy, drawn down by redeem
//   - Investors is an append log capped at MaxInvestors; duplicates are
//     possible and not deduplicated
//   - Maturity moves one way: Active -> Matured
type Record struct {
	ID                   id.BondID
	Owner                id.AdminID
	Issuer               issuer.Record
	Country              string
	IssueNo              string
	TypeOfBond           TypeOfBond
	Tenor                uint8
	CouponRate           uint8
	TotalAmountsOffered  uint64
	TotalAmountsAccepted uint64
	MinimumBidAmount     uint64
	UnitCost             uint64
	Decimals             uint8
	ValueDate            string
	RedemptionDate       string
	Initialized          bool
	Matured              bool
	Investors            []id.InvestorID
	CreatedAt            time.Time
}

// Clone returns an independent copy safe to mutate inside a
// transaction attempt.
func (r *Record) Clone() *Record {
	c := *r
	c.Investors = append([]id.InvestorID{}, r.Investors...)
	return &c
}

// AppendInvestor records a participant. The roster is an append log,
// not a lookup structure: repeat buyers appear repeatedly.
func (r *Record) AppendInvestor(investorID id.InvestorID) error {
	if len(r.Investors) >= MaxInvestors {
		return dErrors.Newf(dErrors.CodeCapacityExceeded, "bond investor roster is full (max %d)", MaxInvestors)
	}
	r.Investors = append(r.Investors, investorID)
	return nil
}

// CanMature checks the one-way maturity transition.
func (r *Record) CanMature() error {
	if !r.Initialized {
		return dErrors.New(dErrors.CodeAccountNotInitialized, "bond is not initialized")
	}
	if r.Matured {
		return dErrors.New(dErrors.CodeInvalidBondMaturityStatus, "bond is already matured")
	}
	return nil
}

// ApplyMature transitions the bond to matured. Call CanMature first.
func (r *Record) ApplyMature() {
	r.Matured = true
}

// Deposit anchors the escrow authority for a bond's custody vault.
// Read-only after creation except for vault tag assignment.
type Deposit struct {
	ID           id.DepositID
	BondID       id.BondID
	Owner        id.AdminID
	AuthorityTag byte
	VaultTag     *byte
	Initialized  bool
	CreatedAt    time.Time
}

// RegisterParams carries the issuance terms for bond registration.
type RegisterParams struct {
	IssuerName          string
	Country             string
	IssueNo             string
	TypeOfBond          uint8
	Tenor               uint8
	CouponRate          uint8
	TotalAmountsOffered uint64
	MinimumBidAmount    uint64
	UnitCost            uint64
	Decimals            uint8
	ValueDate           string
	RedemptionDate      string
}

// Validate runs the registration checks in declaration order and fails
// fast on the first violation.
func (p RegisterParams) Validate() error {
	if err := issuer.ValidateName(p.IssuerName); err != nil {
		return err
	}
	if err := id.ValidateCountry(p.Country); err != nil {
		return err
	}
	if len(p.IssueNo) == 0 || len(p.IssueNo) > MaxIssueNoLength {
		return dErrors.New(dErrors.CodeInvalidIssueNoLength, "issue no must be 1-20 bytes")
	}
	switch TypeOfBond(p.TypeOfBond) {
	case TypeFixedCoupon, TypeInfrastructure:
	default:
		return dErrors.New(dErrors.CodeInvalidTypeOfBond, "type of bond must be 1 (fixed coupon) or 2 (infrastructure)")
	}
	if p.Tenor < MinTenor || p.Tenor > MaxTenor {
		return dErrors.New(dErrors.CodeInvalidBondTenor, "tenor must be between 2 and 30 years")
	}
	if p.CouponRate == 0 {
		return dErrors.New(dErrors.CodeInvalidBondCouponRate, "coupon rate must be positive")
	}
	if p.TotalAmountsOffered == 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "total amounts offered must be positive")
	}
	if p.MinimumBidAmount == 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "minimum bid amount must be positive")
	}
	if p.UnitCost == 0 {
		return dErrors.New(dErrors.CodeInvalidAmount, "unit cost must be positive")
	}
	if len(p.ValueDate) == 0 || len(p.ValueDate) > MaxDateLength {
		return dErrors.New(dErrors.CodeInvalidValueDateLength, "value date must be 1-20 bytes")
	}
	if len(p.RedemptionDate) == 0 || len(p.RedemptionDate) > MaxDateLength {
		return dErrors.New(dErrors.CodeInvalidRedemptionDateLength, "redemption date must be 1-20 bytes")
	}
	if p.Decimals == 0 {
		return dErrors.New(dErrors.CodeInvalidNumeric, "decimals must be positive")
	}
	return nil
}
