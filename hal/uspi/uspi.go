package uspi

import (
	"context"
	"fmt"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/pkg"
)

// InterruptName is the name of the host controller interrupt line.
const InterruptName = "usb"

// DefaultIRQLine is the BCM2837 interrupt number of the DWC host controller.
const DefaultIRQLine = 9

// Controller is the USPi library capability.
type Controller interface {
	// Initialize brings up the USB host controller and enumerates devices.
	Initialize() bool
	// EthernetAvailable reports whether an Ethernet function was enumerated.
	EthernetAvailable() bool
	// IsLinkUp reports the PHY link status.
	IsLinkUp() bool
	// ReceiveFrame copies a pending frame into buf and returns its length.
	ReceiveFrame(buf []byte) (int, bool)
	// SendFrame transmits frame.
	SendFrame(frame []byte) bool
	// MACAddress writes the adapter's hardware address into buf.
	MACAddress(buf []byte)
	// HandleInterrupt services the host controller interrupt.
	HandleInterrupt()
}

// HAL implements hal.DeviceHAL on top of a USPi controller.
type HAL struct {
	ctrl    Controller
	line    uint32
	staging hal.Staging
}

// Option configures a HAL.
type Option func(*HAL)

// WithIRQLine sets the platform interrupt number of the host controller.
func WithIRQLine(line uint32) Option {
	return func(h *HAL) { h.line = line }
}

// WithDMAAllocator sets the allocator for the receive staging buffer.
func WithDMAAllocator(alloc hal.DMAAllocator) Option {
	return func(h *HAL) { h.staging.SetAllocator(alloc) }
}

// New creates a USPi HAL for ctrl.
func New(ctrl Controller, opts ...Option) *HAL {
	h := &HAL{
		ctrl:    ctrl,
		line:    DefaultIRQLine,
		staging: hal.Staging{Name: "uspi"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Init initializes USPi and allocates the staging buffer.
func (h *HAL) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := h.staging.Init(func() error {
		if !h.ctrl.Initialize() {
			return fmt.Errorf("initialize: %w", pkg.ErrInitFailed)
		}
		if !h.ctrl.EthernetAvailable() {
			return fmt.Errorf("ethernet device not found: %w", pkg.ErrNoDevice)
		}
		return nil
	})
	if err != nil {
		return err
	}

	pkg.LogInfo(pkg.ComponentHAL, "uspi HAL initialized", "irq", h.line)
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

// MACAddress returns the adapter's hardware address.
func (h *HAL) MACAddress() hal.MACAddress {
	var m hal.MACAddress
	h.ctrl.MACAddress(m[:])
	return m
}

// Interrupts returns the host controller interrupt line.
func (h *HAL) Interrupts() []hal.Interrupt {
	return []hal.Interrupt{{
		Name:    InterruptName,
		Line:    h.line,
		Handler: h.ctrl.HandleInterrupt,
	}}
}

// Close waits for a receive in progress and releases the staging buffer.
func (h *HAL) Close() error {
	return h.staging.Close()
}

// Compile-time interface check
var _ hal.DeviceHAL = (*HAL)(nil)
