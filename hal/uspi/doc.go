// Package uspi implements hal.DeviceHAL for USB-attached Ethernet
// controllers driven by the USPi library, such as the LAN9514 found on
// the Raspberry Pi 3.
//
// USPi owns the USB host controller. This package adapts its capability,
// described by [Controller], to the softnic HAL: boolean results become
// errors, the receive staging buffer is owned here, and the single host
// controller interrupt line is exposed for the interrupt bridge.
//
//	h := uspi.New(ctrl, uspi.WithIRQLine(9))
//	if err := h.Init(ctx); err != nil {
//	    // USPi failed or no Ethernet function was enumerated
//	}
package uspi
