package fifo

import (
	"encoding/binary"
	"os"
	"time"

	"github.com/ardnew/softnic/pkg"
)

// Message types (shared by device and peer).
const (
	msgFrame = 0x02 // Ethernet frame
	msgLink  = 0x10 // Link change
)

// Link change payloads.
const (
	linkDown = 0x00
	linkUp   = 0x01
)

// Header size for messages.
const headerSize = 3 // type (1) + length (2)

// MaxMessageSize is the largest payload a message can carry.
const MaxMessageSize = 0xFFFF

// FIFO file names.
const (
	fifoRx = "rx"
	fifoTx = "tx"
)

// pollInterval bounds each blocking read so closure is observed.
const pollInterval = 100 * time.Millisecond

// readFull reads exactly len(buf) bytes from f. It retries on read
// deadlines and gives up when done is closed.
func readFull(done <-chan struct{}, f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		select {
		case <-done:
			return total, pkg.ErrClosed
		default:
		}

		f.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := f.Read(buf[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			return total, err
		}
	}
	return total, nil
}

// readMessage reads one message into buf and returns its type and payload.
func readMessage(done <-chan struct{}, f *os.File, buf []byte) (byte, []byte, error) {
	var header [headerSize]byte
	if _, err := readFull(done, f, header[:]); err != nil {
		return 0, nil, err
	}

	msgType := header[0]
	length := int(binary.LittleEndian.Uint16(header[1:3]))
	if length > len(buf) {
		// Consume the payload to stay in sync with the stream.
		discard := make([]byte, length)
		if _, err := readFull(done, f, discard); err != nil {
			return 0, nil, err
		}
		return msgType, nil, pkg.ErrBufferTooSmall
	}

	payload := buf[:length]
	if _, err := readFull(done, f, payload); err != nil {
		return 0, nil, err
	}
	return msgType, payload, nil
}

// writeMessage writes one message to f. A write that cannot complete
// within timeout fails.
func writeMessage(f *os.File, timeout time.Duration, msgType byte, payload []byte) error {
	if len(payload) > MaxMessageSize {
		return pkg.ErrInvalidParameter
	}

	msg := make([]byte, headerSize+len(payload))
	msg[0] = msgType
	binary.LittleEndian.PutUint16(msg[1:3], uint16(len(payload)))
	copy(msg[headerSize:], payload)

	f.SetWriteDeadline(time.Now().Add(timeout))
	written := 0
	for written < len(msg) {
		n, err := f.Write(msg[written:])
		if n > 0 {
			written += n
		}
		if err != nil {
			return err
		}
	}
	return nil
}
