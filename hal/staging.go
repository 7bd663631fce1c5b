package hal

import (
	"fmt"
	"sync"

	"github.com/ardnew/softnic/pkg"
)

// Staging owns the receive staging buffer of a controller adapter and
// serializes its lifecycle: the buffer is allocated by Init, lent to the
// controller for the duration of each Receive, and freed by Close only
// once no Receive is in flight.
//
// The zero value allocates with [AllocDMA]. Adapters embed a Staging and
// pass their controller calls to it.
type Staging struct {
	// Name prefixes errors and log records, e.g. "uspi".
	Name string

	alloc DMAAllocator

	mutex sync.RWMutex
	dma   *DMABuffer
}

// SetAllocator replaces the staging buffer allocator. A nil alloc keeps
// the current one. It has no effect on a buffer already allocated.
func (s *Staging) SetAllocator(alloc DMAAllocator) {
	if alloc == nil {
		return
	}
	s.mutex.Lock()
	s.alloc = alloc
	s.mutex.Unlock()
}

// Init runs bringUp and then allocates the staging buffer. A failed
// bringUp or allocation leaves the adapter uninitialized so Init may be
// retried.
func (s *Staging) Init(bringUp func() error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.dma != nil {
		return pkg.ErrAlreadyRunning
	}
	if bringUp != nil {
		if err := bringUp(); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}

	alloc := s.alloc
	if alloc == nil {
		alloc = AllocDMA
	}
	dma, err := alloc(DMAPageSize)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	s.dma = dma
	return nil
}

// Initialized reports whether the staging buffer is allocated.
func (s *Staging) Initialized() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.dma != nil
}

// Receive lends the staging buffer to rx and returns the frame rx wrote.
// The buffer cannot be freed while rx runs. A length outside the buffer is
// logged and discarded.
func (s *Staging) Receive(rx func(buf []byte) (int, bool)) ([]byte, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.dma == nil {
		return nil, false
	}

	buf := s.dma.Bytes()
	n, ok := rx(buf)
	if !ok {
		return nil, false
	}
	if n < 0 || n > len(buf) {
		pkg.LogWarn(pkg.ComponentHAL, "controller reported invalid frame length",
			"hal", s.Name,
			"length", n,
			"buffer", len(buf))
		return nil, false
	}
	return buf[:n], true
}

// Send passes frame to tx once the adapter is initialized. A rejected
// frame yields an error wrapping pkg.ErrAborted.
func (s *Staging) Send(frame []byte, tx func(frame []byte) bool) error {
	if !s.Initialized() {
		return pkg.ErrNotInitialized
	}
	if !tx(frame) {
		return fmt.Errorf("%s: send %d bytes: %w", s.Name, len(frame), pkg.ErrAborted)
	}
	return nil
}

// Close waits for any Receive in flight and frees the staging buffer.
func (s *Staging) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.dma == nil {
		return nil
	}
	err := s.dma.Free()
	s.dma = nil
	return err
}
