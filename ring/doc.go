// Package ring implements the fixed-slot frame ring shared between the
// driver and an external network-stack process.
//
// # Layout
//
// The ring occupies the first [Size] bytes of a [dataport.Dataport] and
// consists of [SlotCount] slots of [SlotSize] bytes each:
//
//	slot i at offset i*SlotSize
//	├── data   [MaxFrameSize]byte
//	└── length uint32 (native byte order)
//
// # Slot Protocol
//
// The length word is the only synchronization between producer and
// consumer. Zero means the slot is empty; any other value means it holds a
// frame of that many bytes.
//
//   - The producer waits until the slot at its index is empty, copies the
//     frame into the data area, then stores the length (release).
//   - The consumer loads the length (acquire), reads that many data bytes,
//     then stores zero to hand the slot back.
//
// Both sides advance their index modulo [SlotCount], so the consumer
// observes frames in the order they were published. After every publish
// the producer calls its [Notifier] once; a consumer woken by the
// notification must drain every occupied slot since no count is delivered.
//
// # Waiting
//
// When the next slot is still occupied the producer waits without bound.
// There is no timeout: if the consumer stops draining, the producer stops
// publishing. The [Waiter] decides how to wait. [YieldWaiter] yields the
// processor between polls and works with any consumer. [ParkWaiter] sleeps
// until an in-process [Consumer] releases a slot, polling at a fixed
// interval to still observe out-of-process consumers.
package ring
