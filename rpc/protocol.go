package rpc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ardnew/softnic/pkg"
)

// Message types.
const (
	MsgTransmit  = 0x01
	MsgGetMAC    = 0x02
	MsgReceive   = 0x03
	MsgSubscribe = 0x04

	MsgResponse = 0x80
	MsgHasData  = 0x81
)

const headerSize = 3

// MaxPayload is the largest payload a message can carry.
const MaxPayload = 0xFFFF

type message struct {
	typ     byte
	payload []byte
}

func readMessage(r io.Reader) (message, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return message{}, err
	}

	n := binary.LittleEndian.Uint16(header[1:3])
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return message{}, fmt.Errorf("read payload: %w", err)
	}
	return message{typ: header[0], payload: payload}, nil
}

func writeMessage(w io.Writer, typ byte, payload []byte) error {
	if len(payload) > MaxPayload {
		return pkg.ErrInvalidParameter
	}

	buf := make([]byte, headerSize+len(payload))
	buf[0] = typ
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(payload)))
	copy(buf[headerSize:], payload)

	_, err := w.Write(buf)
	return err
}

// response builds a Response payload.
func response(status pkg.Status, data ...byte) []byte {
	return append([]byte{byte(status)}, data...)
}
