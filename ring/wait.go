package ring

import (
	"runtime"
	"time"
)

// Waiter is the strategy the producer uses while the next slot is
// occupied.
type Waiter interface {
	// Wait pauses until the slot should be polled again. It returns false
	// if done is closed.
	Wait(done <-chan struct{}) bool

	// Wake is called by an in-process consumer after it releases a slot.
	Wake()
}

// YieldWaiter yields the processor once per poll.
type YieldWaiter struct{}

// Wait implements Waiter.
func (YieldWaiter) Wait(done <-chan struct{}) bool {
	select {
	case <-done:
		return false
	default:
	}
	runtime.Gosched()
	return true
}

// Wake implements Waiter.
func (YieldWaiter) Wake() {}

// DefaultParkInterval is the poll interval of a ParkWaiter.
const DefaultParkInterval = time.Millisecond

// ParkWaiter parks the producer until a consumer releases a slot or the
// poll interval elapses.
type ParkWaiter struct {
	wake     chan struct{}
	interval time.Duration
}

// NewParkWaiter returns a ParkWaiter polling at interval. A non-positive
// interval selects [DefaultParkInterval].
func NewParkWaiter(interval time.Duration) *ParkWaiter {
	if interval <= 0 {
		interval = DefaultParkInterval
	}
	return &ParkWaiter{
		wake:     make(chan struct{}, 1),
		interval: interval,
	}
}

// Wait implements Waiter.
func (w *ParkWaiter) Wait(done <-chan struct{}) bool {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	select {
	case <-done:
		return false
	case <-w.wake:
		return true
	case <-timer.C:
		return true
	}
}

// Wake implements Waiter.
func (w *ParkWaiter) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}
