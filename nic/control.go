package nic

import (
	"context"
	"fmt"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/pkg"
)

// Transmit sends the first length bytes of the transmit region as one
// frame. A failed send is logged and reported as pkg.ErrAborted; it is not
// retried.
func (d *Driver) Transmit(length int) error {
	if d.tx == nil {
		return fmt.Errorf("no transmit region: %w", pkg.ErrInvalidState)
	}
	if length <= 0 || length > d.tx.Len() {
		return fmt.Errorf("transmit length %d: %w", length, pkg.ErrInvalidParameter)
	}

	frame, err := d.tx.Slice(0, length)
	if err != nil {
		return err
	}

	d.txMutex.Lock()
	err = d.hal.SendFrame(frame)
	d.txMutex.Unlock()

	if err != nil {
		d.transmitErrors.Add(1)
		pkg.LogError(pkg.ComponentControl, "failed to send frame",
			"length", length,
			"error", err)
		return fmt.Errorf("transmit %d bytes: %w", length, pkg.ErrAborted)
	}

	d.transmitted.Add(1)
	return nil
}

// GetMACAddress waits until the driver is ready and returns the controller's
// hardware address, also copying it to the start of the response region.
func (d *Driver) GetMACAddress(ctx context.Context) (hal.MACAddress, error) {
	if err := d.ready.Wait(ctx); err != nil {
		return hal.MACAddress{}, err
	}

	mac := d.hal.MACAddress()
	if d.response != nil {
		if err := d.response.CopyIn(0, mac[:]); err != nil {
			return mac, err
		}
	}
	return mac, nil
}

// ReceiveFrames is the pull-based receive operation. Frames are delivered
// through the ring only, so it always fails with pkg.ErrNotImplemented.
func (d *Driver) ReceiveFrames() (length, remaining int, err error) {
	return 0, 0, pkg.ErrNotImplemented
}
