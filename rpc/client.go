package rpc

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/pkg"
)

// Client calls a Server's operations. Calls are serialized.
type Client struct {
	conn net.Conn

	callMutex sync.Mutex
	responses chan message
	events    chan struct{}

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Dial connects to the server listening on the Unix socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	c := &Client{
		conn:      conn,
		responses: make(chan message, 1),
		events:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	defer c.shutdown(pkg.ErrClosed)

	for {
		msg, err := readMessage(c.conn)
		if err != nil {
			c.shutdown(err)
			return
		}

		switch msg.typ {
		case MsgResponse:
			select {
			case c.responses <- msg:
			case <-c.done:
				return
			}
		case MsgHasData:
			select {
			case c.events <- struct{}{}:
			default:
			}
		default:
			pkg.LogWarn(pkg.ComponentRPC, "unexpected message from server", "type", msg.typ)
		}
	}
}

// call sends one request and waits for its response. A canceled ctx
// closes the client, since the response would otherwise be paired with
// the next call.
func (c *Client) call(ctx context.Context, typ byte, payload []byte) (pkg.Status, []byte, error) {
	c.callMutex.Lock()
	defer c.callMutex.Unlock()

	if err := writeMessage(c.conn, typ, payload); err != nil {
		return 0, nil, err
	}

	select {
	case msg := <-c.responses:
		if len(msg.payload) < 1 {
			return 0, nil, pkg.ErrProtocol
		}
		return pkg.Status(msg.payload[0]), msg.payload[1:], nil
	case <-c.done:
		return 0, nil, c.err
	case <-ctx.Done():
		c.Close()
		return 0, nil, ctx.Err()
	}
}

// Transmit asks the driver to send length bytes from its transmit region.
func (c *Client) Transmit(length int) error {
	if length < 0 || uint64(length) > 0xFFFFFFFF {
		return pkg.ErrInvalidParameter
	}
	var payload [4]byte
	binary.LittleEndian.PutUint32(payload[:], uint32(length))

	status, _, err := c.call(context.Background(), MsgTransmit, payload[:])
	if err != nil {
		return err
	}
	return status.Error()
}

// GetMACAddress returns the driver's hardware address. It blocks until the
// driver is ready.
func (c *Client) GetMACAddress(ctx context.Context) (hal.MACAddress, error) {
	var mac hal.MACAddress

	status, data, err := c.call(ctx, MsgGetMAC, nil)
	if err != nil {
		return mac, err
	}
	if err := status.Error(); err != nil {
		return mac, err
	}
	if len(data) != hal.MACAddressSize {
		return mac, fmt.Errorf("mac address of %d bytes: %w", len(data), pkg.ErrProtocol)
	}
	copy(mac[:], data)
	return mac, nil
}

// ReceiveFrames calls the pull-based receive operation.
func (c *Client) ReceiveFrames() (length, remaining int, err error) {
	status, data, err := c.call(context.Background(), MsgReceive, nil)
	if err != nil {
		return 0, 0, err
	}
	if len(data) == 8 {
		length = int(binary.LittleEndian.Uint32(data[0:4]))
		remaining = int(binary.LittleEndian.Uint32(data[4:8]))
	}
	return length, remaining, status.Error()
}

// Subscribe requests has-data events, delivered on Events.
func (c *Client) Subscribe() error {
	status, _, err := c.call(context.Background(), MsgSubscribe, nil)
	if err != nil {
		return err
	}
	return status.Error()
}

// Events returns the has-data event channel. Events coalesce: one receive
// may stand for several published frames.
func (c *Client) Events() <-chan struct{} {
	return c.events
}

// Done returns a channel closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection.
func (c *Client) Close() error {
	c.shutdown(pkg.ErrClosed)
	return nil
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		close(c.done)
		c.conn.Close()
	})
}
