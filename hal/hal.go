package hal

import (
	"context"
)

// Interrupt binds a hardware interrupt line to the controller's internal
// service routine.
type Interrupt struct {
	Name    string // Line name used for binding, e.g. "usb"
	Line    uint32 // Platform interrupt number
	Handler func() // Service routine; must not block
}

// DeviceHAL defines the Hardware Abstraction Layer interface for Ethernet
// controllers.
type DeviceHAL interface {
	// Init powers up and initializes the controller and allocates the DMA
	// staging buffer. A failed Init may be retried.
	Init(ctx context.Context) error

	// LinkUp reports the physical link status without blocking.
	LinkUp() bool

	// ReceiveFrame returns the next pending frame, or false if none is
	// pending. It never blocks. The frame aliases the staging buffer and is
	// valid until the next call.
	ReceiveFrame() ([]byte, bool)

	// SendFrame transmits one frame.
	SendFrame(frame []byte) error

	// MACAddress returns the controller's hardware address.
	MACAddress() MACAddress

	// Interrupts lists the interrupt lines of the controller.
	Interrupts() []Interrupt

	// Close releases the staging buffer and the controller.
	Close() error
}
