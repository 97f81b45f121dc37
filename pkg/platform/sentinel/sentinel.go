package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these
// (optionally wrapped) so services can translate them into domain codes.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrAlreadyExists: create attempted for a key that is taken
// - ErrCapacity: a bounded roster is full
// - ErrUnavailable: backing store temporarily unreachable
//
// For validation errors (bad input, range violations), use
// pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrCapacity      = errors.New("capacity exceeded")
	ErrUnavailable   = errors.New("unavailable")
)
