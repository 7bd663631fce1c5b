// Package link waits for the Ethernet link to come up.
//
// The monitor polls the controller at a fixed interval and emits a
// warning every WarnAfter consecutive down polls. There is no timeout:
// WaitUp returns only when the link is up or its context is canceled.
package link

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ardnew/softnic/pkg"
)

// Defaults.
const (
	DefaultInterval  = 100 * time.Millisecond
	DefaultWarnAfter = 40
)

// Poller reports link status without blocking.
type Poller interface {
	LinkUp() bool
}

// PollerFunc adapts a function to Poller.
type PollerFunc func() bool

// LinkUp calls f.
func (f PollerFunc) LinkUp() bool { return f() }

// Clock sleeps between polls.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock sleeps on the wall clock.
type RealClock struct{}

// Sleep waits for d or until ctx is done.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State is the last observed link state.
type State uint32

// Link states.
const (
	StateDown State = iota
	StateUp
)

func (s State) String() string {
	switch s {
	case StateDown:
		return "down"
	case StateUp:
		return "up"
	default:
		return "unknown"
	}
}

// Monitor waits for a Poller to report link up.
type Monitor struct {
	poller    Poller
	interval  time.Duration
	warnAfter int
	clock     Clock

	state    atomic.Uint32
	polls    atomic.Uint64
	warnings atomic.Uint64
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithWarnAfter sets the number of consecutive down polls between
// warnings.
func WithWarnAfter(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.warnAfter = n
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(m *Monitor) {
		if c != nil {
			m.clock = c
		}
	}
}

// NewMonitor creates a monitor for p.
func NewMonitor(p Poller, opts ...Option) *Monitor {
	m := &Monitor{
		poller:    p,
		interval:  DefaultInterval,
		warnAfter: DefaultWarnAfter,
		clock:     RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WaitUp blocks until the link is up. It returns ctx.Err() if ctx is done
// first.
func (m *Monitor) WaitUp(ctx context.Context) error {
	count := 0
	for {
		m.polls.Add(1)
		if m.poller.LinkUp() {
			m.state.Store(uint32(StateUp))
			pkg.LogDebug(pkg.ComponentLink, "link is up", "polls", m.polls.Load())
			return nil
		}
		m.state.Store(uint32(StateDown))

		if err := m.clock.Sleep(ctx, m.interval); err != nil {
			return err
		}

		count++
		if count < m.warnAfter {
			continue
		}
		count = 0
		m.warnings.Add(1)
		pkg.LogWarn(pkg.ComponentLink, "link is down",
			"waited", time.Duration(m.warnAfter)*m.interval)
	}
}

// State returns the last observed link state.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Polls returns the total number of status polls.
func (m *Monitor) Polls() uint64 {
	return m.polls.Load()
}

// Warnings returns the number of link-down warnings emitted.
func (m *Monitor) Warnings() uint64 {
	return m.warnings.Load()
}
