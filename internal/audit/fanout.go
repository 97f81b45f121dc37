package audit

import (
	"context"
	"errors"
)

// FanoutStore appends to every sink; failures are joined so the worker
// can log them without losing the other sinks' writes.
type FanoutStore struct {
	sinks []Store
}

func NewFanoutStore(sinks ...Store) *FanoutStore {
	return &FanoutStore{sinks: sinks}
}

func (f *FanoutStore) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
