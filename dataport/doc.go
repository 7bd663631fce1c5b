// Package dataport provides a bounds-checked view over a memory region
// shared between the driver and a peer process.
//
// A [Dataport] is either backed by the Go heap ([New]), for in-process
// peers and tests, or by a file mapped with MAP_SHARED ([Map]), so that a
// separate network-stack process mapping the same file sees the same bytes.
//
// All access goes through offset-validated accessors. Byte ranges are
// returned by [Dataport.Slice]; 32-bit synchronization words are returned
// by [Dataport.Word] and are read and written atomically, which gives the
// release/acquire ordering the slot protocols built on top of a dataport
// depend on.
package dataport
