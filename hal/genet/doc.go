// Package genet implements hal.DeviceHAL for the BCM54213 GENET Ethernet
// controller integrated in the BCM2711 (Raspberry Pi 4).
//
// The controller raises two interrupt lines, A and B, each serviced by its
// own routine. Unlike the USB variant, GENET has no address ROM: the MAC
// address is queried from the VideoCore firmware through the property
// mailbox ([Mailbox], tag [TagGetMACAddress]).
package genet
