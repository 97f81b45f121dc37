package investor

import (
	"time"

	id "bondgate/pkg/domain"
	dErrors "bondgate/pkg/domain-errors"
)

const (
	// MaxFullNamesLength is the byte-length ceiling for an investor's
	// full names (first name, middle name, surname).
	MaxFullNamesLength = 50
)

// Record is one investor's ledger entry.
//
// Invariants:
//   - FullNames is 1-50 bytes, Country is exactly 2 or 3 bytes
//   - TotalUnits and AvailableFunds only change through the transfer
//     engine's checked arithmetic
//   - Records are never deleted; deactivation flips Active
type Record struct {
	Owner          id.InvestorID
	FullNames      string
	Country        string
	Active         bool
	TotalUnits     uint64
	AvailableFunds uint64
	CreatedAt      time.Time
}

// Clone returns an independent copy safe to mutate inside a
// transaction attempt.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// NewRecord validates registration input and builds an active record
// with zeroed counters.
func NewRecord(owner id.InvestorID, fullNames, country string, now time.Time) (*Record, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "investor owner is required")
	}
	if len(fullNames) == 0 || len(fullNames) > MaxFullNamesLength {
		return nil, dErrors.New(dErrors.CodeInvalidFullNamesLength, "full names must be 1-50 bytes")
	}
	if err := id.ValidateCountry(country); err != nil {
		return nil, err
	}
	return &Record{
		Owner:     owner,
		FullNames: fullNames,
		Country:   country,
		Active:    true,
		CreatedAt: now,
	}, nil
}
