package irq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/pkg"
)

// Line is a platform interrupt line.
type Line interface {
	// Wait blocks until the line fires or ctx is done.
	Wait(ctx context.Context) error

	// Acknowledge re-arms the line after its handler has run.
	Acknowledge() error
}

// Stats counts activity on one bound line.
type Stats struct {
	Dispatched  uint64
	AckFailures uint64
}

type binding struct {
	intr hal.Interrupt
	line Line

	dispatched  atomic.Uint64
	ackFailures atomic.Uint64
}

// Bridge dispatches interrupt lines to their handlers.
type Bridge struct {
	mutex    sync.RWMutex
	bindings map[string]*binding
	order    []string

	running atomic.Bool
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{bindings: make(map[string]*binding)}
}

// Bind associates intr with line. Each interrupt name can be bound once.
func (b *Bridge) Bind(intr hal.Interrupt, line Line) error {
	if intr.Name == "" || intr.Handler == nil || line == nil {
		return pkg.ErrInvalidParameter
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if _, ok := b.bindings[intr.Name]; ok {
		return fmt.Errorf("interrupt %q already bound: %w", intr.Name, pkg.ErrInvalidState)
	}
	b.bindings[intr.Name] = &binding{intr: intr, line: line}
	b.order = append(b.order, intr.Name)

	pkg.LogDebug(pkg.ComponentIRQ, "interrupt bound", "name", intr.Name, "line", intr.Line)
	return nil
}

// Bound returns the names of bound interrupts in bind order.
func (b *Bridge) Bound() []string {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return append([]string(nil), b.order...)
}

// Dispatch services one occurrence of the named interrupt: the handler
// runs first, then the line is acknowledged.
func (b *Bridge) Dispatch(name string) error {
	b.mutex.RLock()
	bd, ok := b.bindings[name]
	b.mutex.RUnlock()

	if !ok {
		return fmt.Errorf("interrupt %q not bound: %w", name, pkg.ErrInvalidParameter)
	}
	b.dispatch(bd)
	return nil
}

func (b *Bridge) dispatch(bd *binding) {
	bd.intr.Handler()
	bd.dispatched.Add(1)

	if err := bd.line.Acknowledge(); err != nil {
		bd.ackFailures.Add(1)
		pkg.LogError(pkg.ComponentIRQ, "failed to acknowledge interrupt",
			"name", bd.intr.Name,
			"error", err)
	}
}

// Serve waits on every bound line and dispatches each occurrence until ctx
// is done. Lines whose Wait fails for a reason other than ctx are logged
// and abandoned.
func (b *Bridge) Serve(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return pkg.ErrAlreadyRunning
	}
	defer b.running.Store(false)

	b.mutex.RLock()
	bindings := make([]*binding, 0, len(b.order))
	for _, name := range b.order {
		bindings = append(bindings, b.bindings[name])
	}
	b.mutex.RUnlock()

	var wg sync.WaitGroup
	for _, bd := range bindings {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.serveLine(ctx, bd)
		}()
	}
	wg.Wait()
	return nil
}

func (b *Bridge) serveLine(ctx context.Context, bd *binding) {
	for {
		if err := bd.line.Wait(ctx); err != nil {
			if ctx.Err() == nil && !errors.Is(err, pkg.ErrClosed) {
				pkg.LogError(pkg.ComponentIRQ, "interrupt wait failed",
					"name", bd.intr.Name,
					"error", err)
			}
			return
		}
		b.dispatch(bd)
	}
}

// Stats returns the counters of the named interrupt.
func (b *Bridge) Stats(name string) (Stats, bool) {
	b.mutex.RLock()
	bd, ok := b.bindings[name]
	b.mutex.RUnlock()

	if !ok {
		return Stats{}, false
	}
	return Stats{
		Dispatched:  bd.dispatched.Load(),
		AckFailures: bd.ackFailures.Load(),
	}, true
}
