package dataport

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ardnew/softnic/pkg"
)

// WordSize is the size in bytes of a synchronization word.
const WordSize = 4

// Dataport is a fixed-size shared memory region.
type Dataport struct {
	name  string
	buf   []byte
	unmap func([]byte) error

	closeOnce sync.Once
	closeErr  error
}

// New allocates a zeroed heap-backed dataport of size bytes.
// The region is 8-byte aligned.
func New(name string, size int) *Dataport {
	if size < 0 {
		size = 0
	}
	d := &Dataport{name: name}
	if size > 0 {
		words := make([]uint64, (size+7)/8)
		d.buf = unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
	}
	return d
}

// Name returns the name the dataport was created with.
func (d *Dataport) Name() string {
	return d.name
}

// Len returns the size of the region in bytes.
func (d *Dataport) Len() int {
	return len(d.buf)
}

// Slice returns the n bytes starting at off. The returned slice aliases
// the shared region.
func (d *Dataport) Slice(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off > len(d.buf) || n > len(d.buf)-off {
		return nil, fmt.Errorf("dataport %s: [%d:%d] of %d: %w",
			d.name, off, off+n, len(d.buf), pkg.ErrOutOfRange)
	}
	return d.buf[off : off+n : off+n], nil
}

// CopyIn copies src into the region at off.
func (d *Dataport) CopyIn(off int, src []byte) error {
	dst, err := d.Slice(off, len(src))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// CopyOut copies len(dst) bytes from the region at off into dst.
func (d *Dataport) CopyOut(dst []byte, off int) error {
	src, err := d.Slice(off, len(dst))
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// Word returns the 32-bit synchronization word at off.
// The offset must be a multiple of [WordSize].
func (d *Dataport) Word(off int) (Word, error) {
	b, err := d.Slice(off, WordSize)
	if err != nil {
		return Word{}, err
	}
	p := unsafe.Pointer(&b[0])
	if uintptr(p)%WordSize != 0 {
		return Word{}, fmt.Errorf("dataport %s: word at %d: %w", d.name, off, pkg.ErrMisaligned)
	}
	return Word{p: (*uint32)(p)}, nil
}

// Close releases the region. Heap-backed dataports are left to the
// garbage collector; mapped dataports are unmapped. Slices and words
// obtained from the dataport must not be used after Close.
func (d *Dataport) Close() error {
	d.closeOnce.Do(func() {
		if d.unmap != nil && d.buf != nil {
			d.closeErr = d.unmap(d.buf)
		}
		d.buf = nil
	})
	return d.closeErr
}

// Word is a 32-bit value inside a dataport accessed with atomic loads and
// stores.
type Word struct {
	p *uint32
}

// Load atomically reads the word.
func (w Word) Load() uint32 {
	return atomic.LoadUint32(w.p)
}

// Store atomically writes the word.
func (w Word) Store(v uint32) {
	atomic.StoreUint32(w.p, v)
}

// Valid reports whether the word refers to a region.
func (w Word) Valid() bool {
	return w.p != nil
}
