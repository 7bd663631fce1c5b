// Package rpc carries the driver's control operations over a Unix stream
// socket.
//
// Every message has a 3-byte header:
//
//	[type:1][length:2 little endian][payload:length]
//
// Requests
//   - 0x01 Transmit, payload u32 frame length
//   - 0x02 GetMACAddress
//   - 0x03 ReceiveFrames
//   - 0x04 Subscribe to has-data events
//
// Each request is answered, in order, by a 0x80 Response whose payload is a
// [pkg.Status] byte followed by the operation's result. Subscribed clients
// additionally receive 0x81 HasData events, coalesced, whenever a frame is
// published to the receive ring; [Server] implements ring.Notifier for this.
package rpc
