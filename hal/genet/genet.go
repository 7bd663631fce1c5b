package genet

import (
	"context"
	"fmt"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/pkg"
)

// Interrupt line names.
const (
	InterruptNameA = "genet-a"
	InterruptNameB = "genet-b"
)

// BCM2711 GIC interrupt numbers of the GENET controller.
const (
	DefaultIRQLineA = 189
	DefaultIRQLineB = 190
)

// Controller is the BCM54213 GENET driver capability.
type Controller interface {
	// Initialize resets the MAC and PHY and starts DMA.
	Initialize() bool
	// IsLinkUp reports the PHY link status.
	IsLinkUp() bool
	// ReceiveFrame copies a pending frame into buf and returns its length.
	ReceiveFrame(buf []byte) (int, bool)
	// SendFrame transmits frame.
	SendFrame(frame []byte) bool
	// HandleInterrupt0 services interrupt line A.
	HandleInterrupt0()
	// HandleInterrupt1 services interrupt line B.
	HandleInterrupt1()
}

// HAL implements hal.DeviceHAL on top of a GENET controller.
type HAL struct {
	ctrl    Controller
	mailbox Mailbox
	lineA   uint32
	lineB   uint32
	staging hal.Staging
}

// Option configures a HAL.
type Option func(*HAL)

// WithIRQLines sets the platform interrupt numbers of lines A and B.
func WithIRQLines(a, b uint32) Option {
	return func(h *HAL) {
		h.lineA = a
		h.lineB = b
	}
}

// WithDMAAllocator sets the allocator for the receive staging buffer.
func WithDMAAllocator(alloc hal.DMAAllocator) Option {
	return func(h *HAL) { h.staging.SetAllocator(alloc) }
}

// New creates a GENET HAL. The mailbox is used to read the MAC address.
func New(ctrl Controller, mailbox Mailbox, opts ...Option) *HAL {
	h := &HAL{
		ctrl:    ctrl,
		mailbox: mailbox,
		lineA:   DefaultIRQLineA,
		lineB:   DefaultIRQLineB,
		staging: hal.Staging{Name: "genet"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Init initializes the controller and allocates the staging buffer.
func (h *HAL) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := h.staging.Init(func() error {
		if !h.ctrl.Initialize() {
			return fmt.Errorf("initialize: %w", pkg.ErrInitFailed)
		}
		return nil
	})
	if err != nil {
		return err
	}

	pkg.LogInfo(pkg.ComponentHAL, "genet HAL initialized",
		"irqA", h.lineA,
		"irqB", h.lineB)
	return nil
}

// LinkUp reports the PHY link status.
func (h *HAL) LinkUp() bool {
	return h.ctrl.IsLinkUp()
}

// ReceiveFrame returns the next pending frame.
func (h *HAL) ReceiveFrame() ([]byte, bool) {
	return h.staging.Receive(h.ctrl.ReceiveFrame)
}

// SendFrame transmits frame.
func (h *HAL) SendFrame(frame []byte) error {
	return h.staging.Send(frame, h.ctrl.SendFrame)
}

// MACAddress queries the hardware address from the firmware. A failed
// request is logged and yields the zero address.
func (h *HAL) MACAddress() hal.MACAddress {
	var m hal.MACAddress
	if h.mailbox == nil {
		pkg.LogError(pkg.ComponentHAL, "failed to retrieve the MAC address", "error", pkg.ErrMailbox)
		return m
	}

	var buf [hal.MACAddressSize]byte
	if err := h.mailbox.Property(TagGetMACAddress, buf[:]); err != nil {
		pkg.LogError(pkg.ComponentHAL, "failed to retrieve the MAC address",
			"tag", TagGetMACAddress,
			"error", err)
		return m
	}
	copy(m[:], buf[:])
	return m
}

// Interrupts returns interrupt lines A and B.
func (h *HAL) Interrupts() []hal.Interrupt {
	return []hal.Interrupt{
		{Name: InterruptNameA, Line: h.lineA, Handler: h.ctrl.HandleInterrupt0},
		{Name: InterruptNameB, Line: h.lineB, Handler: h.ctrl.HandleInterrupt1},
	}
}

// Close waits for a receive in progress and releases the staging buffer.
func (h *HAL) Close() error {
	return h.staging.Close()
}

// Compile-time interface check
var _ hal.DeviceHAL = (*HAL)(nil)
