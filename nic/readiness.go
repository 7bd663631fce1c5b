package nic

import (
	"context"
	"sync"
)

// Readiness is a write-once signal raised when the driver has finished
// starting. Any number of goroutines may wait on it.
type Readiness struct {
	once sync.Once
	ch   chan struct{}
}

// NewReadiness returns an unsignalled Readiness.
func NewReadiness() *Readiness {
	return &Readiness{ch: make(chan struct{})}
}

// Signal raises the signal. It returns false if it was already raised.
func (r *Readiness) Signal() bool {
	signalled := false
	r.once.Do(func() {
		close(r.ch)
		signalled = true
	})
	return signalled
}

// Ready reports whether the signal has been raised.
func (r *Readiness) Ready() bool {
	select {
	case <-r.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal is raised or ctx is done.
func (r *Readiness) Wait(ctx context.Context) error {
	select {
	case <-r.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the signal is raised.
func (r *Readiness) Done() <-chan struct{} {
	return r.ch
}
