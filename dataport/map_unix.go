//go:build unix

package dataport

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softnic/pkg"
)

// Map maps size bytes of the file at path as a shared dataport, creating
// the file if needed and growing it to size. Every process mapping the same
// file shares the region.
func Map(path string, size int) (*Dataport, error) {
	if size <= 0 {
		return nil, fmt.Errorf("dataport %s: size %d: %w", path, size, pkg.ErrInvalidParameter)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open dataport: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat dataport: %w", err)
	}
	if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			return nil, fmt.Errorf("grow dataport: %w", err)
		}
	}

	buf, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap dataport %s: %w", path, err)
	}

	pkg.LogDebug(pkg.ComponentDriver, "dataport mapped", "path", path, "size", size)

	return &Dataport{
		name:  path,
		buf:   buf,
		unmap: unix.Munmap,
	}, nil
}
