package fifo

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/pkg"
)

var testMAC = hal.MACAddress{0x02, 0x00, 0x5e, 0x10, 0x20, 0x30}

func newTestDevice(t *testing.T, opts ...Option) (*HAL, *Peer) {
	t.Helper()

	h := New(t.TempDir(), testMAC, opts...)
	if err := h.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { h.Close() })

	p, err := OpenPeer(h.DeviceDir())
	if err != nil {
		t.Fatalf("OpenPeer() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })

	return h, p
}

// waitRaised waits for the software interrupt and runs the handler.
func waitRaised(t *testing.T, h *HAL) {
	t.Helper()
	select {
	case <-h.Raised():
		h.Interrupts()[0].Handler()
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt not raised")
	}
}

func TestInitCreatesDevice(t *testing.T) {
	bus := t.TempDir()
	h := New(bus, testMAC, WithDeviceID("unit"))
	if err := h.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	want := filepath.Join(bus, "device-unit")
	if h.DeviceDir() != want {
		t.Errorf("DeviceDir() = %q, want %q", h.DeviceDir(), want)
	}
	for _, name := range []string{fifoRx, fifoTx} {
		fi, err := os.Stat(filepath.Join(want, name))
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if fi.Mode()&os.ModeNamedPipe == 0 {
			t.Errorf("%s is not a named pipe", name)
		}
	}

	if err := h.Init(context.Background()); !errors.Is(err, pkg.ErrAlreadyRunning) {
		t.Errorf("second Init() error = %v, want ErrAlreadyRunning", err)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(want); !os.IsNotExist(err) {
		t.Errorf("device dir still exists after Close")
	}
}

func TestRandomDeviceID(t *testing.T) {
	bus := t.TempDir()
	a := New(bus, testMAC)
	b := New(bus, testMAC)
	if err := a.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if err := b.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("IDs = %q, %q, want distinct non-empty", a.ID(), b.ID())
	}
}

func TestReceiveRequiresInterrupt(t *testing.T) {
	h, p := newTestDevice(t)

	frame := bytes.Repeat([]byte{0xAB}, 60)
	if err := p.InjectFrame(frame); err != nil {
		t.Fatalf("InjectFrame() error = %v", err)
	}

	select {
	case <-h.Raised():
	case <-time.After(2 * time.Second):
		t.Fatal("interrupt not raised")
	}

	if _, ok := h.ReceiveFrame(); ok {
		t.Fatal("frame visible before interrupt serviced")
	}

	h.Interrupts()[0].Handler()

	got, ok := h.ReceiveFrame()
	if !ok {
		t.Fatal("ReceiveFrame() = false after interrupt")
	}
	if !bytes.Equal(got, frame) {
		t.Errorf("ReceiveFrame() = % x, want % x", got, frame)
	}
	if h.Serviced() != 1 {
		t.Errorf("Serviced() = %d, want 1", h.Serviced())
	}
	if _, ok := h.ReceiveFrame(); ok {
		t.Error("ReceiveFrame() returned a second frame")
	}
}

func TestReceiveOrder(t *testing.T) {
	h, p := newTestDevice(t)

	const count = 10
	for i := range count {
		if err := p.InjectFrame([]byte{byte(i), 0x01, 0x02}); err != nil {
			t.Fatal(err)
		}
	}

	got := 0
	deadline := time.After(2 * time.Second)
	for got < count {
		select {
		case <-h.Raised():
			h.Interrupts()[0].Handler()
		case <-deadline:
			t.Fatalf("received %d of %d frames", got, count)
		}
		for {
			frame, ok := h.ReceiveFrame()
			if !ok {
				break
			}
			if frame[0] != byte(got) {
				t.Fatalf("frame %d has tag %d", got, frame[0])
			}
			got++
		}
	}
}

func TestOversizedFrameDropped(t *testing.T) {
	h, p := newTestDevice(t)

	if err := p.InjectFrame(make([]byte, hal.DMAPageSize+1)); err != nil {
		t.Fatal(err)
	}
	small := []byte{0x01, 0x02, 0x03}
	if err := p.InjectFrame(small); err != nil {
		t.Fatal(err)
	}

	waitRaised(t, h)
	got, ok := h.ReceiveFrame()
	if !ok || !bytes.Equal(got, small) {
		t.Errorf("ReceiveFrame() = % x, %v, want % x", got, ok, small)
	}
}

func TestLink(t *testing.T) {
	h, p := newTestDevice(t, WithLinkDown())

	if h.LinkUp() {
		t.Fatal("LinkUp() = true with WithLinkDown")
	}

	if err := p.SetLink(true); err != nil {
		t.Fatal(err)
	}
	waitFor(t, h.LinkUp)

	if err := p.SetLink(false); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return !h.LinkUp() })
}

func TestSendFrame(t *testing.T) {
	h, p := newTestDevice(t)

	frame := []byte{0xde, 0xad, 0xbe, 0xef}
	if err := h.SendFrame(frame); err != nil {
		t.Fatalf("SendFrame() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	buf := make([]byte, MaxMessageSize)
	n, err := p.ReadFrame(ctx, buf)
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if !bytes.Equal(buf[:n], frame) {
		t.Errorf("ReadFrame() = % x, want % x", buf[:n], frame)
	}
}

func TestSendFrameErrors(t *testing.T) {
	h := New(t.TempDir(), testMAC)
	if err := h.SendFrame([]byte{1}); !errors.Is(err, pkg.ErrNotInitialized) {
		t.Errorf("SendFrame() before Init error = %v, want ErrNotInitialized", err)
	}

	h, _ = newTestDevice(t)
	if err := h.SendFrame(make([]byte, MaxMessageSize+1)); !errors.Is(err, pkg.ErrAborted) {
		t.Errorf("SendFrame() oversized error = %v, want ErrAborted", err)
	}
}

func TestReadFrameCancel(t *testing.T) {
	_, p := newTestDevice(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.ReadFrame(ctx, make([]byte, 64))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReadFrame() error = %v, want DeadlineExceeded", err)
	}
}

func TestInterrupts(t *testing.T) {
	h := New(t.TempDir(), testMAC)
	intrs := h.Interrupts()
	if len(intrs) != 1 || intrs[0].Name != InterruptName || intrs[0].Handler == nil {
		t.Errorf("Interrupts() = %+v", intrs)
	}
	if h.MACAddress() != testMAC {
		t.Errorf("MACAddress() = %v, want %v", h.MACAddress(), testMAC)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
