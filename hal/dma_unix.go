//go:build unix

package hal

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softnic/pkg"
)

// AllocDMA allocates a page-aligned staging buffer of size bytes from an
// anonymous private mapping. The mapping is never shared with another
// owner.
func AllocDMA(size int) (*DMABuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("dma alloc %d bytes: %w", size, pkg.ErrInvalidParameter)
	}
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("dma alloc %d bytes: %w", size, err)
	}
	return NewDMABuffer(buf, unix.Munmap), nil
}
