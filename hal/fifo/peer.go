package fifo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ardnew/softnic/pkg"
)

// Peer is the wire side of a FIFO device: it injects frames and link
// changes and reads transmitted frames.
type Peer struct {
	dir     string
	rxWrite *os.File
	txRead  *os.File

	writeMutex sync.Mutex
	closeCh    chan struct{}
	closeOnce  sync.Once
}

// OpenPeer attaches to the device whose directory is deviceDir.
func OpenPeer(deviceDir string) (*Peer, error) {
	rx, err := openFIFO(deviceDir, fifoRx)
	if err != nil {
		return nil, err
	}
	tx, err := openFIFO(deviceDir, fifoTx)
	if err != nil {
		rx.Close()
		return nil, err
	}
	return &Peer{
		dir:     deviceDir,
		rxWrite: rx,
		txRead:  tx,
		closeCh: make(chan struct{}),
	}, nil
}

// InjectFrame delivers frame to the device as if received from the wire.
func (p *Peer) InjectFrame(frame []byte) error {
	p.writeMutex.Lock()
	defer p.writeMutex.Unlock()
	return writeMessage(p.rxWrite, DefaultSendTimeout, msgFrame, frame)
}

// SetLink changes the device's link status.
func (p *Peer) SetLink(up bool) error {
	state := byte(linkDown)
	if up {
		state = linkUp
	}
	p.writeMutex.Lock()
	defer p.writeMutex.Unlock()
	return writeMessage(p.rxWrite, DefaultSendTimeout, msgLink, []byte{state})
}

// ReadFrame blocks until the device transmits a frame, copies it into buf
// and returns its length.
func (p *Peer) ReadFrame(ctx context.Context, buf []byte) (int, error) {
	done := make(chan struct{})
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
		case <-p.closeCh:
		case <-finished:
		}
		close(done)
	}()

	msgType, payload, err := readMessage(done, p.txRead, buf)
	if err != nil {
		if errors.Is(err, pkg.ErrClosed) && ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	}
	if msgType != msgFrame {
		return 0, fmt.Errorf("unexpected message type %#x: %w", msgType, pkg.ErrProtocol)
	}
	return len(payload), nil
}

// Close detaches from the device.
func (p *Peer) Close() error {
	p.closeOnce.Do(func() { close(p.closeCh) })
	return errors.Join(p.rxWrite.Close(), p.txRead.Close())
}
