// Package fifo implements a simulated Ethernet controller HAL using named
// pipes.
//
// This HAL is primarily intended for testing and for running the driver on
// a development host. A peer process plays the role of the wire: it writes
// frames and link changes into the device and reads the frames the driver
// transmits.
//
// # Architecture
//
// Each device instance creates a unique subdirectory under a shared bus
// directory:
//
//	/tmp/softnic-bus/              # Bus directory (shared with peers)
//	└── device-{id}/               # Device subdirectory (unique per device)
//	    ├── rx                     # Peer → device: frames and link changes
//	    └── tx                     # Device → peer: transmitted frames
//
// The id is a random UUID unless configured with [WithDeviceID].
//
// # Message Format
//
// Both pipes carry messages with a 3-byte header:
//
//	[type:1][length:2 little endian][payload:length]
//
// Message types are
//   - 0x02: Ethernet frame, payload is the frame
//   - 0x10: link change, payload is one byte (0x01 up, 0x00 down)
//
// # Interrupt Model
//
// Frames read from the rx pipe are queued as if the controller had placed
// them in its DMA ring, and the software interrupt line is raised
// ([HAL.Raised]). Only after the interrupt service routine has run are
// queued frames visible to [HAL.ReceiveFrame], mirroring controllers whose
// receive path is driven by their interrupt handler.
//
// # Usage
//
//	h := fifo.New("/tmp/softnic-bus", mac)
//	if err := h.Init(ctx); err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	peer, _ := fifo.OpenPeer(h.DeviceDir())
//	peer.InjectFrame(frame)
package fifo
