package nic

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardnew/softnic/dataport"
	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/irq"
	"github.com/ardnew/softnic/link"
	"github.com/ardnew/softnic/pkg"
	"github.com/ardnew/softnic/ring"
)

// Config holds the collaborators of a Driver.
type Config struct {
	// HAL is the Ethernet controller. Required.
	HAL hal.DeviceHAL

	// Ring receives every frame returned by the controller. Required.
	Ring *ring.Ring

	// Transmit is the region callers place outgoing frames in. Required
	// for Transmit.
	Transmit *dataport.Dataport

	// Response receives the MAC address on GetMACAddress. Optional.
	Response *dataport.Dataport

	// Monitor waits for link up during Start. Defaults to a monitor
	// polling HAL with default timing.
	Monitor *link.Monitor

	// Bridge dispatches the controller's interrupts. Lines must already be
	// bound; Start serves them once the controller is initialized.
	// Optional for polled controllers.
	Bridge *irq.Bridge

	// Idle is how long the ingress loop sleeps when no frame is pending.
	// Zero yields the processor instead of sleeping.
	Idle time.Duration
}

// Stats counts driver activity.
type Stats struct {
	Received       uint64 // Frames returned by the controller
	Published      uint64 // Frames stored in the ring
	Dropped        uint64 // Frames rejected by the ring
	Transmitted    uint64 // Frames sent by the controller
	TransmitErrors uint64 // Failed sends
}

// Driver is one running instance of the network interface driver.
type Driver struct {
	hal      hal.DeviceHAL
	ring     *ring.Ring
	tx       *dataport.Dataport
	response *dataport.Dataport
	monitor  *link.Monitor
	bridge   *irq.Bridge
	idle     time.Duration

	ready *Readiness

	mutex       sync.Mutex
	started     bool
	initialized bool // accessed only by the Start call holding started
	running     bool
	closing     bool
	runDone     chan struct{}
	serveCancel context.CancelFunc
	wg          sync.WaitGroup
	closed      chan struct{}
	closeOnce   sync.Once

	txMutex sync.Mutex

	received       atomic.Uint64
	transmitted    atomic.Uint64
	transmitErrors atomic.Uint64
}

// New validates cfg and creates a driver. Nothing is started.
func New(cfg Config) (*Driver, error) {
	if cfg.HAL == nil || cfg.Ring == nil {
		return nil, pkg.ErrInvalidParameter
	}

	monitor := cfg.Monitor
	if monitor == nil {
		monitor = link.NewMonitor(cfg.HAL)
	}

	return &Driver{
		hal:      cfg.HAL,
		ring:     cfg.Ring,
		tx:       cfg.Transmit,
		response: cfg.Response,
		monitor:  monitor,
		bridge:   cfg.Bridge,
		idle:     cfg.Idle,
		ready:    NewReadiness(),
		closed:   make(chan struct{}),
	}, nil
}

// Start initializes the controller, serves its interrupts, waits for the
// link to come up and then signals readiness. A controller that fails to
// initialize yields an error wrapping pkg.ErrInvalidState. Start may be
// called again after any failure; a controller that already initialized
// is not initialized twice.
func (d *Driver) Start(ctx context.Context) error {
	d.mutex.Lock()
	if d.started {
		d.mutex.Unlock()
		return pkg.ErrAlreadyRunning
	}
	d.started = true
	d.mutex.Unlock()

	if !d.initialized {
		if err := d.hal.Init(ctx); err != nil {
			pkg.LogError(pkg.ComponentDriver, "failed to initialize ethernet driver", "error", err)
			d.mutex.Lock()
			d.started = false
			d.mutex.Unlock()
			return fmt.Errorf("%w: %w", pkg.ErrInvalidState, err)
		}
		d.initialized = true
	}

	if d.bridge != nil {
		serveCtx, cancel := context.WithCancel(context.Background())
		d.mutex.Lock()
		d.serveCancel = cancel
		d.mutex.Unlock()

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.bridge.Serve(serveCtx)
		}()
	}

	if err := d.monitor.WaitUp(ctx); err != nil {
		d.stopServe()
		d.mutex.Lock()
		d.started = false
		d.mutex.Unlock()
		return err
	}

	if !d.ready.Signal() {
		pkg.LogDebug(pkg.ComponentDriver, "readiness already signalled")
	}

	pkg.LogInfo(pkg.ComponentDriver, "ethernet driver started",
		"mac", d.hal.MACAddress().String())
	return nil
}

// Run is the ingress loop: it moves every frame the controller returns
// into the ring until ctx is done or the ring is closed. It is the ring's
// sole producer and must not be called concurrently with itself.
//
// A full ring blocks Run until the consumer frees a slot. Canceling ctx
// closes the ring so that such a wait ends.
func (d *Driver) Run(ctx context.Context) error {
	if !d.ready.Ready() {
		return pkg.ErrInvalidState
	}

	d.mutex.Lock()
	if d.closing {
		d.mutex.Unlock()
		return pkg.ErrClosed
	}
	if d.running {
		d.mutex.Unlock()
		return pkg.ErrAlreadyRunning
	}
	d.running = true
	runDone := make(chan struct{})
	d.runDone = runDone
	d.mutex.Unlock()

	defer func() {
		d.mutex.Lock()
		d.running = false
		d.runDone = nil
		d.mutex.Unlock()
		close(runDone)
	}()

	stop := context.AfterFunc(ctx, func() { d.ring.Close() })
	defer stop()

	pkg.LogDebug(pkg.ComponentDriver, "ingress loop started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-d.closed:
			return pkg.ErrClosed
		default:
		}

		frame, ok := d.hal.ReceiveFrame()
		if !ok {
			if err := d.wait(ctx); err != nil {
				return err
			}
			continue
		}

		d.received.Add(1)
		if d.ring.TryPublish(frame) == ring.PublishClosed {
			if err := ctx.Err(); err != nil {
				return err
			}
			return pkg.ErrClosed
		}
	}
}

// wait pauses the ingress loop when the controller has nothing pending.
func (d *Driver) wait(ctx context.Context) error {
	if d.idle <= 0 {
		runtime.Gosched()
		return nil
	}

	timer := time.NewTimer(d.idle)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-d.closed:
		return pkg.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready returns the driver's readiness signal.
func (d *Driver) Ready() *Readiness {
	return d.ready
}

// Stats returns a snapshot of the driver counters.
func (d *Driver) Stats() Stats {
	return Stats{
		Received:       d.received.Load(),
		Published:      d.ring.Published(),
		Dropped:        d.ring.Dropped(),
		Transmitted:    d.transmitted.Load(),
		TransmitErrors: d.transmitErrors.Load(),
	}
}

// Close stops interrupt service and the ingress loop, then closes the
// ring and the controller. The controller is closed only after Run has
// returned, so its staging buffer is never freed under a frame in flight.
func (d *Driver) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.mutex.Lock()
		d.closing = true
		runDone := d.runDone
		d.mutex.Unlock()

		close(d.closed)
		d.stopServe()
		ringErr := d.ring.Close()
		if runDone != nil {
			<-runDone
		}

		err = errors.Join(ringErr, d.hal.Close())
		pkg.LogDebug(pkg.ComponentDriver, "ethernet driver closed")
	})
	return err
}

// stopServe cancels interrupt service and waits for it to return.
func (d *Driver) stopServe() {
	d.mutex.Lock()
	cancel := d.serveCancel
	d.serveCancel = nil
	d.mutex.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
}
