package ring

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ardnew/softnic/dataport"
	"github.com/ardnew/softnic/pkg"
)

// Ring geometry.
const (
	// SlotCount is the number of slots in the ring.
	SlotCount = 16

	// MaxFrameSize is the capacity of one slot's data area, enough for one
	// maximum-size Ethernet frame.
	MaxFrameSize = 1536

	// SlotSize is the stride between consecutive slots.
	SlotSize = MaxFrameSize + dataport.WordSize

	// Size is the number of dataport bytes occupied by the ring.
	Size = SlotCount * SlotSize
)

// PublishResult is the outcome of [Ring.TryPublish].
type PublishResult uint8

// Publish results.
const (
	PublishOK      PublishResult = iota // Frame stored and consumer notified
	PublishDropped                      // Frame discarded, ring untouched
	PublishClosed                       // Ring closed while waiting for a slot
)

// String returns a string representation of the result.
func (r PublishResult) String() string {
	switch r {
	case PublishOK:
		return "ok"
	case PublishDropped:
		return "dropped"
	case PublishClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// slot is a validated view of one ring entry.
type slot struct {
	data   []byte
	length dataport.Word
}

// slots is the validated view of the whole ring.
type slots [SlotCount]slot

// layout builds the slot views over port.
func layout(port *dataport.Dataport) (*slots, error) {
	if port == nil {
		return nil, fmt.Errorf("ring: nil dataport: %w", pkg.ErrInvalidParameter)
	}
	if port.Len() < Size {
		return nil, fmt.Errorf("ring: dataport %s has %d bytes, need %d: %w",
			port.Name(), port.Len(), Size, pkg.ErrBufferTooSmall)
	}

	var s slots
	for i := range s {
		off := i * SlotSize
		data, err := port.Slice(off, MaxFrameSize)
		if err != nil {
			return nil, err
		}
		length, err := port.Word(off + MaxFrameSize)
		if err != nil {
			return nil, err
		}
		s[i] = slot{data: data, length: length}
	}
	return &s, nil
}

// at returns slot i. Indices outside the ring are a programming error.
func (s *slots) at(i int) *slot {
	if i < 0 || i >= SlotCount {
		panic(fmt.Sprintf("ring: slot index %d out of range [0,%d)", i, SlotCount))
	}
	return &s[i]
}

// Ring is the producer side of the frame ring. TryPublish must only be
// called from a single goroutine.
type Ring struct {
	slots    *slots
	index    int
	waiter   Waiter
	notifier Notifier

	done      chan struct{}
	closeOnce sync.Once

	published atomic.Uint64
	dropped   atomic.Uint64
}

// Option configures a Ring.
type Option func(*Ring)

// WithWaiter sets the strategy used while the next slot is occupied.
// The default is [YieldWaiter].
func WithWaiter(w Waiter) Option {
	return func(r *Ring) {
		if w != nil {
			r.waiter = w
		}
	}
}

// WithNotifier sets the notifier signalled after each publish.
func WithNotifier(n Notifier) Option {
	return func(r *Ring) {
		if n != nil {
			r.notifier = n
		}
	}
}

// New creates the producer side of a ring laid out at the start of port.
// Existing slot contents are left as they are.
func New(port *dataport.Dataport, opts ...Option) (*Ring, error) {
	s, err := layout(port)
	if err != nil {
		return nil, err
	}

	r := &Ring{
		slots:    s,
		waiter:   YieldWaiter{},
		notifier: NotifyFunc(func() {}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// TryPublish stores frame in the slot at the producer index.
//
// Frames larger than [MaxFrameSize] and empty frames are dropped with a
// warning; the producer index does not move and no slot is written.
// Otherwise TryPublish waits until the slot is empty, copies the frame,
// publishes its length, advances the index and notifies the consumer once.
// The wait is unbounded and ends early only when the ring is closed.
func (r *Ring) TryPublish(frame []byte) PublishResult {
	n := len(frame)
	if n > MaxFrameSize {
		r.dropped.Add(1)
		pkg.LogWarn(pkg.ComponentRing, "frame exceeds slot capacity, dropped",
			"max", MaxFrameSize,
			"length", n)
		return PublishDropped
	}
	if n == 0 {
		r.dropped.Add(1)
		pkg.LogWarn(pkg.ComponentRing, "empty frame, dropped")
		return PublishDropped
	}

	s := r.slots.at(r.index)
	for s.length.Load() != 0 {
		if !r.waiter.Wait(r.done) {
			return PublishClosed
		}
	}

	copy(s.data, frame)
	s.length.Store(uint32(n))

	pkg.LogDebug(pkg.ComponentRing, "frame published", "slot", r.index, "length", n)

	r.index = (r.index + 1) % SlotCount
	r.published.Add(1)
	r.notifier.Notify()
	return PublishOK
}

// Index returns the slot the next frame will be published into.
func (r *Ring) Index() int {
	return r.index
}

// Occupied reports whether slot i currently holds an unconsumed frame.
func (r *Ring) Occupied(i int) bool {
	return r.slots.at(i).length.Load() != 0
}

// Published returns the number of frames published.
func (r *Ring) Published() uint64 {
	return r.published.Load()
}

// Dropped returns the number of frames dropped.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}

// Consumer returns an in-process consumer sharing this ring's slots. Slots
// it releases wake the ring's waiter.
func (r *Ring) Consumer() *Consumer {
	return &Consumer{slots: r.slots, waker: r.waiter}
}

// Close releases a producer blocked in TryPublish. Subsequent publishes
// that need to wait return [PublishClosed].
func (r *Ring) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	return nil
}
