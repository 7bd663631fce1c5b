package fifo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/pkg"
)

// InterruptName is the name of the simulated receive interrupt line.
const InterruptName = "fifo"

// QueueDepth is the number of frames the simulated controller buffers.
const QueueDepth = 64

// DefaultSendTimeout bounds how long SendFrame waits for the tx pipe.
const DefaultSendTimeout = 100 * time.Millisecond

// HAL implements hal.DeviceHAL using named pipes (FIFOs).
type HAL struct {
	// Bus directory (root directory shared with peers)
	busDir string

	// Device subdirectory (busDir/device-{id}/)
	deviceDir string
	id        string

	mac         hal.MACAddress
	line        uint32
	sendTimeout time.Duration
	alloc       hal.DMAAllocator
	linkInitial bool

	rxRead  *os.File // Device reads frames and link changes from peer
	txWrite *os.File // Device writes transmitted frames to peer

	linkUp atomic.Bool

	// Frames received from the wire, waiting for the interrupt routine
	wire chan []byte
	// Frames serviced by the interrupt routine, ready for ReceiveFrame
	ready chan []byte
	// Software interrupt line
	irq chan struct{}

	dma *hal.DMABuffer

	// Synchronization
	mutex     sync.RWMutex
	initDone  bool
	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	serviced atomic.Uint64
	overruns atomic.Uint64
}

// Option configures a HAL.
type Option func(*HAL)

// WithDeviceID uses id instead of a random UUID for the device directory.
func WithDeviceID(id string) Option {
	return func(h *HAL) { h.id = id }
}

// WithLinkDown starts the simulated link down; the peer raises it with
// [Peer.SetLink].
func WithLinkDown() Option {
	return func(h *HAL) { h.linkInitial = false }
}

// WithSendTimeout bounds how long SendFrame waits for the tx pipe.
func WithSendTimeout(d time.Duration) Option {
	return func(h *HAL) {
		if d > 0 {
			h.sendTimeout = d
		}
	}
}

// WithDMAAllocator sets the allocator for the receive staging buffer.
func WithDMAAllocator(alloc hal.DMAAllocator) Option {
	return func(h *HAL) {
		if alloc != nil {
			h.alloc = alloc
		}
	}
}

// New creates a new FIFO-based controller HAL with the given hardware
// address. The device will create its own subdirectory inside busDir.
func New(busDir string, mac hal.MACAddress, opts ...Option) *HAL {
	h := &HAL{
		busDir:      busDir,
		mac:         mac,
		sendTimeout: DefaultSendTimeout,
		alloc:       hal.AllocDMA,
		linkInitial: true,
		wire:        make(chan []byte, QueueDepth),
		ready:       make(chan []byte, QueueDepth),
		irq:         make(chan struct{}, 1),
		closeCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Init creates the device subdirectory and FIFO files and starts the
// simulated wire.
func (h *HAL) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initDone {
		return pkg.ErrAlreadyRunning
	}

	if h.id == "" {
		h.id = uuid.NewString()
	}
	h.deviceDir = filepath.Join(h.busDir, "device-"+h.id)

	if err := os.MkdirAll(h.deviceDir, 0o755); err != nil {
		return fmt.Errorf("create device dir: %w", err)
	}
	if err := createFIFO(h.deviceDir, fifoRx); err != nil {
		return err
	}
	if err := createFIFO(h.deviceDir, fifoTx); err != nil {
		return err
	}

	// Open with O_RDWR|O_NONBLOCK so neither side blocks waiting for the other
	var err error
	h.rxRead, err = openFIFO(h.deviceDir, fifoRx)
	if err != nil {
		h.cleanup()
		return err
	}
	h.txWrite, err = openFIFO(h.deviceDir, fifoTx)
	if err != nil {
		h.cleanup()
		return err
	}

	h.dma, err = h.alloc(hal.DMAPageSize)
	if err != nil {
		h.cleanup()
		return fmt.Errorf("fifo: %w", err)
	}

	h.linkUp.Store(h.linkInitial)
	h.initDone = true

	h.wg.Add(1)
	go h.wireLoop(h.rxRead)

	pkg.LogInfo(pkg.ComponentHAL, "fifo HAL initialized",
		"busDir", h.busDir,
		"deviceDir", h.deviceDir,
		"mac", h.mac.String())
	return nil
}

// wireLoop reads messages from the peer until the HAL is closed.
func (h *HAL) wireLoop(f *os.File) {
	defer h.wg.Done()

	buf := make([]byte, MaxMessageSize)
	for {
		msgType, payload, err := readMessage(h.closeCh, f, buf)
		if err != nil {
			if errors.Is(err, pkg.ErrClosed) || errors.Is(err, os.ErrClosed) {
				return
			}
			if errors.Is(err, pkg.ErrBufferTooSmall) {
				pkg.LogWarn(pkg.ComponentHAL, "oversized message discarded", "type", msgType)
				continue
			}
			pkg.LogError(pkg.ComponentHAL, "fifo read failed", "error", err)
			return
		}

		switch msgType {
		case msgFrame:
			h.arrive(payload)

		case msgLink:
			if len(payload) < 1 {
				pkg.LogWarn(pkg.ComponentHAL, "empty link message")
				continue
			}
			up := payload[0] == linkUp
			h.linkUp.Store(up)
			pkg.LogDebug(pkg.ComponentHAL, "link changed", "up", up)

		default:
			pkg.LogWarn(pkg.ComponentHAL, "unknown message type", "type", msgType)
		}
	}
}

// arrive queues a frame from the wire and raises the interrupt line.
func (h *HAL) arrive(payload []byte) {
	if len(payload) > hal.DMAPageSize {
		pkg.LogWarn(pkg.ComponentHAL, "frame exceeds staging buffer, dropped",
			"length", len(payload),
			"max", hal.DMAPageSize)
		return
	}

	frame := append([]byte(nil), payload...)
	select {
	case h.wire <- frame:
	default:
		h.overruns.Add(1)
		pkg.LogWarn(pkg.ComponentHAL, "receive queue overrun, frame dropped")
		return
	}

	select {
	case h.irq <- struct{}{}:
	default:
	}
}

// handleInterrupt is the receive interrupt service routine. It moves every
// frame that arrived on the wire to the ready queue.
func (h *HAL) handleInterrupt() {
	h.serviced.Add(1)
	for {
		select {
		case frame := <-h.wire:
			select {
			case h.ready <- frame:
			default:
				h.overruns.Add(1)
				pkg.LogWarn(pkg.ComponentHAL, "ready queue overrun, frame dropped")
			}
		default:
			return
		}
	}
}

// Raised returns the software interrupt line. A value is pending whenever
// frames wait for the interrupt service routine.
func (h *HAL) Raised() <-chan struct{} {
	return h.irq
}

// LinkUp reports the simulated link status.
func (h *HAL) LinkUp() bool {
	return h.linkUp.Load()
}

// ReceiveFrame returns the next frame serviced by the interrupt routine.
func (h *HAL) ReceiveFrame() ([]byte, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.dma == nil {
		return nil, false
	}

	select {
	case frame := <-h.ready:
		n := copy(h.dma.Bytes(), frame)
		return h.dma.Bytes()[:n], true
	default:
		return nil, false
	}
}

// SendFrame writes frame to the tx pipe.
func (h *HAL) SendFrame(frame []byte) error {
	h.mutex.RLock()
	f := h.txWrite
	h.mutex.RUnlock()

	if f == nil {
		return pkg.ErrNotInitialized
	}
	if err := writeMessage(f, h.sendTimeout, msgFrame, frame); err != nil {
		return fmt.Errorf("fifo: send %d bytes: %v: %w", len(frame), err, pkg.ErrAborted)
	}
	return nil
}

// MACAddress returns the configured hardware address.
func (h *HAL) MACAddress() hal.MACAddress {
	return h.mac
}

// Interrupts returns the simulated receive interrupt line.
func (h *HAL) Interrupts() []hal.Interrupt {
	return []hal.Interrupt{{
		Name:    InterruptName,
		Line:    h.line,
		Handler: h.handleInterrupt,
	}}
}

// Serviced returns how many times the interrupt routine has run.
func (h *HAL) Serviced() uint64 {
	return h.serviced.Load()
}

// Overruns returns the number of frames dropped because a queue was full.
func (h *HAL) Overruns() uint64 {
	return h.overruns.Load()
}

// DeviceDir returns the device subdirectory path.
func (h *HAL) DeviceDir() string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.deviceDir
}

// ID returns the device's identifier.
func (h *HAL) ID() string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.id
}

// Close stops the simulated wire, closes the pipes, frees the staging
// buffer and removes the device directory.
func (h *HAL) Close() error {
	h.closeOnce.Do(func() {
		close(h.closeCh)
	})
	h.wg.Wait()

	h.mutex.Lock()
	defer h.mutex.Unlock()

	var err error
	if h.dma != nil {
		err = h.dma.Free()
		h.dma = nil
	}
	h.cleanup()
	h.initDone = false
	pkg.LogInfo(pkg.ComponentHAL, "fifo HAL closed")
	return err
}

// cleanup closes all FIFOs and removes the device directory.
func (h *HAL) cleanup() {
	if h.rxRead != nil {
		h.rxRead.Close()
		h.rxRead = nil
	}
	if h.txWrite != nil {
		h.txWrite.Close()
		h.txWrite = nil
	}
	if h.deviceDir != "" {
		os.RemoveAll(h.deviceDir)
	}
}

// createFIFO creates a named pipe in dir.
func createFIFO(dir, name string) error {
	path := filepath.Join(dir, name)

	// Remove existing file if any
	os.Remove(path)

	if err := unix.Mkfifo(path, 0o666); err != nil {
		return fmt.Errorf("mkfifo %s: %w", name, err)
	}
	return nil
}

// openFIFO opens a named pipe in dir for reading and writing without
// blocking.
func openFIFO(dir, name string) (*os.File, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// Compile-time interface check
var _ hal.DeviceHAL = (*HAL)(nil)
