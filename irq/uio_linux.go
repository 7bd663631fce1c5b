//go:build linux

package irq

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softnic/pkg"
)

// UIOLine is a Line backed by a Linux userspace I/O device. A 4-byte read
// blocks until the interrupt fires; writing 1 unmasks it again.
type UIOLine struct {
	path   string
	fd     int
	wakefd int // eventfd used to interrupt a blocked Wait

	mutex     sync.Mutex
	closed    bool
	closeOnce sync.Once
	count     atomic.Uint32
}

// OpenUIO opens the userspace I/O device at path, e.g. /dev/uio0.
func OpenUIO(path string) (*UIOLine, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newUIOLine(path, fd)
}

// newUIOLine takes ownership of fd, an open userspace I/O device, and
// unmasks its interrupt.
func newUIOLine(path string, fd int) (*UIOLine, error) {
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	l := &UIOLine{path: path, fd: fd, wakefd: wakefd}
	if err := l.Acknowledge(); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// Wait blocks until the device reports an interrupt or ctx is done.
func (l *UIOLine) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, l.wake)
	defer stop()

	fds := []unix.PollFd{
		{Fd: int32(l.fd), Events: unix.POLLIN},
		{Fd: int32(l.wakefd), Events: unix.POLLIN},
	}
	for {
		if err := ctx.Err(); err != nil {
			l.drainWake()
			return err
		}
		if l.isClosed() {
			return pkg.ErrClosed
		}

		_, err := unix.Poll(fds, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll %s: %w", l.path, err)
		}

		if fds[1].Revents&unix.POLLIN != 0 {
			l.drainWake()
			continue
		}
		if fds[0].Revents&unix.POLLIN != 0 {
			var buf [4]byte
			if _, err := unix.Read(l.fd, buf[:]); err != nil {
				return fmt.Errorf("read %s: %w", l.path, err)
			}
			l.count.Store(binary.NativeEndian.Uint32(buf[:]))
			return nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return fmt.Errorf("%s: %w", l.path, pkg.ErrClosed)
		}
	}
}

// Acknowledge unmasks the interrupt.
func (l *UIOLine) Acknowledge() error {
	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], 1)
	if _, err := unix.Write(l.fd, buf[:]); err != nil {
		return fmt.Errorf("%s: %v: %w", l.path, err, pkg.ErrAcknowledge)
	}
	return nil
}

// Count returns the kernel's interrupt count as of the last Wait.
func (l *UIOLine) Count() uint32 {
	return l.count.Load()
}

// Close releases the device. A blocked Wait returns ErrClosed.
func (l *UIOLine) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.mutex.Lock()
		l.closed = true
		l.mutex.Unlock()
		l.wake()
		err = errors.Join(unix.Close(l.fd), unix.Close(l.wakefd))
	})
	return err
}

func (l *UIOLine) isClosed() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.closed
}

func (l *UIOLine) wake() {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	unix.Write(l.wakefd, buf[:])
}

func (l *UIOLine) drainWake() {
	var buf [8]byte
	unix.Read(l.wakefd, buf[:])
}
