// Package irq connects platform interrupt lines to controller service
// routines.
//
// A [Bridge] binds each [hal.Interrupt] a controller declares to a [Line]
// supplied by the platform. When a line fires, the bridge runs the
// controller's handler and then acknowledges the line so it can fire
// again. A failed acknowledgement is logged and never propagated; the
// handler's effect stands.
//
// Two line implementations are provided. [ChanLine] fires on a channel
// receive and serves simulated controllers. [UIOLine] waits on a Linux
// userspace I/O device (/dev/uioN), whose read/write protocol is the
// kernel's interrupt wait/unmask interface.
package irq
