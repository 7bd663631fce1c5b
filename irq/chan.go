package irq

import (
	"context"
	"sync/atomic"
)

// ChanLine is a Line that fires on every receive from a channel.
type ChanLine struct {
	ch   <-chan struct{}
	ack  func() error
	acks atomic.Uint64
}

// NewChanLine creates a line fed by ch. ack, if non-nil, runs on every
// acknowledgement and its error is returned from Acknowledge.
func NewChanLine(ch <-chan struct{}, ack func() error) *ChanLine {
	return &ChanLine{ch: ch, ack: ack}
}

// Wait blocks until ch yields a value or ctx is done.
func (l *ChanLine) Wait(ctx context.Context) error {
	select {
	case <-l.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Acknowledge counts the acknowledgement.
func (l *ChanLine) Acknowledge() error {
	l.acks.Add(1)
	if l.ack != nil {
		return l.ack()
	}
	return nil
}

// Acks returns the number of acknowledgements.
func (l *ChanLine) Acks() uint64 {
	return l.acks.Load()
}
