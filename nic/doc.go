// Package nic ties a controller, the receive ring, the link monitor and the
// interrupt bridge into one driver instance.
//
// A [Driver] is an explicit context object; nothing in this package is
// global. The lifecycle is
//
//	d, _ := nic.New(nic.Config{HAL: h, Ring: r, Transmit: tx, Response: resp})
//	if err := d.Start(ctx); err != nil { // init, wait for link, signal ready
//	    return err
//	}
//	go d.Run(ctx)                       // ingress loop, sole ring producer
//	mac, _ := d.GetMACAddress(ctx)      // control surface
//	d.Close()
//
// # Control Surface
//
// [Driver.Transmit], [Driver.GetMACAddress] and [Driver.ReceiveFrames] are
// the operations exposed to the network stack, either directly or through
// package rpc. GetMACAddress blocks until Start has completed; it has no
// timeout of its own and is bounded only by its context.
package nic
