// Package hal defines the Hardware Abstraction Layer interface for Ethernet
// controllers driven by softnic.
//
// The HAL exposes the few operations the driver needs from a network
// controller: bring-up, link status, non-blocking receive, send, the
// hardware address, and the interrupt lines the controller raises.
// Register-level programming stays inside the controller library each
// variant wraps.
//
// # Variants
//
// One type implements [DeviceHAL] per hardware variant:
//
//   - [github.com/ardnew/softnic/hal/uspi] - USB-attached controller (USPi)
//   - [github.com/ardnew/softnic/hal/genet] - on-chip BCM54213 GENET controller
//   - [github.com/ardnew/softnic/hal/fifo] - simulated controller over named pipes
//
// The variant is chosen when the program is built or configured, never by
// inspecting a HAL value at run time.
//
// # DMA Staging Buffer
//
// Each variant owns exactly one [DMABuffer] for receive. [DeviceHAL.ReceiveFrame]
// returns a view into it that stays valid until the next call; callers copy
// the frame out before receiving again. The buffer is allocated by Init and
// released by Close.
//
// # Implementing a HAL
//
//  1. Create a type that implements all [DeviceHAL] methods
//  2. Bring the controller up and allocate the staging buffer in Init()
//  3. Keep ReceiveFrame and LinkUp non-blocking
//  4. Return errors wrapping [github.com/ardnew/softnic/pkg.ErrAborted] from SendFrame
//  5. List every interrupt line and its service routine in Interrupts()
package hal
