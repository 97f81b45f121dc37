package investor

import (
	"context"

	id "bondgate/pkg/domain"
)

// Store persists investor records keyed by owner identity.
//
// Create fails with sentinel.ErrAlreadyExists when a record for the
// owner exists; Get fails with sentinel.ErrNotFound when it does not.
// Update replaces the record's mutable counters.
type Store interface {
	Create(ctx context.Context, record *Record) error
	Get(ctx context.Context, owner id.InvestorID) (*Record, error)
	Update(ctx context.Context, record *Record) error
}
