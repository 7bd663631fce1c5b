package ring

import (
	"github.com/ardnew/softnic/dataport"
	"github.com/ardnew/softnic/pkg"
)

// Consumer implements the consumer side of the slot protocol. It is used
// by network-stack processes written in Go and by tests; the driver itself
// never consumes.
type Consumer struct {
	slots *slots
	index int
	waker Waiter
}

// NewConsumer creates a consumer over a ring laid out at the start of
// port, typically a dataport mapped from the file the driver publishes
// into.
func NewConsumer(port *dataport.Dataport) (*Consumer, error) {
	s, err := layout(port)
	if err != nil {
		return nil, err
	}
	return &Consumer{slots: s, waker: YieldWaiter{}}, nil
}

// Next consumes the frame in the slot at the consumer index, if any. The
// frame passed to fn aliases shared memory and is only valid until fn
// returns. Next reports whether a slot was released.
func (c *Consumer) Next(fn func(frame []byte)) bool {
	s := c.slots.at(c.index)

	n := s.length.Load()
	if n == 0 {
		return false
	}

	if n > MaxFrameSize {
		pkg.LogWarn(pkg.ComponentRing, "slot length exceeds capacity, discarded",
			"slot", c.index,
			"length", n)
	} else if fn != nil {
		fn(s.data[:n])
	}

	s.length.Store(0)
	c.index = (c.index + 1) % SlotCount
	c.waker.Wake()
	return true
}

// Drain consumes every occupied slot in publish order and returns the
// number of slots released.
func (c *Consumer) Drain(fn func(frame []byte)) int {
	count := 0
	for c.Next(fn) {
		count++
	}
	return count
}

// Index returns the slot the consumer reads next.
func (c *Consumer) Index() int {
	return c.index
}
