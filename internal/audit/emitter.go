package audit

import (
	"context"

	dErrors "bondgate/pkg/domain-errors"
)

// ChannelEmitter hands events to a background worker through a bounded
// channel. A full channel drops the event with an error rather than
// stalling ledger operations.
type ChannelEmitter struct {
	inbox chan<- Event
}

func NewChannelEmitter(inbox chan<- Event) *ChannelEmitter {
	return &ChannelEmitter{inbox: inbox}
}

func (e *ChannelEmitter) Emit(_ context.Context, event Event) error {
	select {
	case e.inbox <- event:
		return nil
	default:
		return dErrors.New(dErrors.CodeInternal, "audit inbox full, event dropped")
	}
}
