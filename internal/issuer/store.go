package issuer

import "context"

// Store persists the bounded issuer registry.
//
// Init creates the registry exactly once; Append fails with
// sentinel.ErrNotFound before Init, sentinel.ErrCapacity when the roster
// is full. The roster is append-only: no removal primitive exists.
type Store interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, record Record) error
	List(ctx context.Context) ([]Record, error)
}
