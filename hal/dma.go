package hal

import (
	"sync"
)

// DMAPageSize is the size of the receive staging buffer each variant
// allocates.
const DMAPageSize = 4096

// DMABuffer is a page-aligned staging buffer the controller transfers
// received frames into. It has exactly one owner.
type DMABuffer struct {
	buf  []byte
	free func([]byte) error

	once sync.Once
	err  error
}

// DMAAllocator allocates a staging buffer of size bytes. Platforms with a
// dedicated non-cached DMA pool supply their own allocator; [AllocDMA] is
// the default.
type DMAAllocator func(size int) (*DMABuffer, error)

// NewDMABuffer wraps memory obtained from a platform allocator. free is
// called once by [DMABuffer.Free] and may be nil.
func NewDMABuffer(buf []byte, free func([]byte) error) *DMABuffer {
	return &DMABuffer{buf: buf, free: free}
}

// Bytes returns the buffer memory. It must not be retained after Free.
func (b *DMABuffer) Bytes() []byte {
	return b.buf
}

// Len returns the buffer size in bytes.
func (b *DMABuffer) Len() int {
	return len(b.buf)
}

// Free releases the buffer. It is safe to call more than once.
func (b *DMABuffer) Free() error {
	b.once.Do(func() {
		if b.free != nil && b.buf != nil {
			b.err = b.free(b.buf)
		}
		b.buf = nil
	})
	return b.err
}
