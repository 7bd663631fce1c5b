package irq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/pkg"
)

// recordLine records the order of handler and acknowledge calls.
type recordLine struct {
	mutex  sync.Mutex
	events *[]string
	ackErr error
}

func (l *recordLine) Wait(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (l *recordLine) Acknowledge() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	*l.events = append(*l.events, "ack")
	return l.ackErr
}

func TestBindValidation(t *testing.T) {
	line := NewChanLine(make(chan struct{}), nil)
	handler := func() {}

	tests := []struct {
		name    string
		intr    hal.Interrupt
		line    Line
		wantErr error
	}{
		{"ok", hal.Interrupt{Name: "usb", Handler: handler}, line, nil},
		{"no name", hal.Interrupt{Handler: handler}, line, pkg.ErrInvalidParameter},
		{"no handler", hal.Interrupt{Name: "usb"}, line, pkg.ErrInvalidParameter},
		{"no line", hal.Interrupt{Name: "usb", Handler: handler}, nil, pkg.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge()
			err := b.Bind(tt.intr, tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Bind() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBindDuplicate(t *testing.T) {
	b := NewBridge()
	intr := hal.Interrupt{Name: "genet-a", Handler: func() {}}
	if err := b.Bind(intr, NewChanLine(nil, nil)); err != nil {
		t.Fatal(err)
	}
	if err := b.Bind(intr, NewChanLine(nil, nil)); !errors.Is(err, pkg.ErrInvalidState) {
		t.Errorf("duplicate Bind() error = %v, want ErrInvalidState", err)
	}
	if got := b.Bound(); len(got) != 1 || got[0] != "genet-a" {
		t.Errorf("Bound() = %v", got)
	}
}

func TestDispatchOrder(t *testing.T) {
	var events []string
	line := &recordLine{events: &events}
	intr := hal.Interrupt{
		Name: "usb",
		Handler: func() {
			line.mutex.Lock()
			events = append(events, "handler")
			line.mutex.Unlock()
		},
	}

	b := NewBridge()
	if err := b.Bind(intr, line); err != nil {
		t.Fatal(err)
	}
	if err := b.Dispatch("usb"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(events) != 2 || events[0] != "handler" || events[1] != "ack" {
		t.Errorf("events = %v, want [handler ack]", events)
	}
}

func TestDispatchAckFailure(t *testing.T) {
	var events []string
	handled := 0
	line := &recordLine{events: &events, ackErr: errors.New("line stuck")}

	b := NewBridge()
	b.Bind(hal.Interrupt{Name: "genet-b", Handler: func() { handled++ }}, line)

	// The failure is absorbed and the handler's effect stands.
	if err := b.Dispatch("genet-b"); err != nil {
		t.Fatalf("Dispatch() error = %v, want nil", err)
	}
	if handled != 1 {
		t.Errorf("handled = %d, want 1", handled)
	}

	st, ok := b.Stats("genet-b")
	if !ok {
		t.Fatal("Stats() not found")
	}
	if st.Dispatched != 1 || st.AckFailures != 1 {
		t.Errorf("Stats() = %+v, want 1 dispatched 1 ack failure", st)
	}
}

func TestDispatchUnbound(t *testing.T) {
	b := NewBridge()
	if err := b.Dispatch("nope"); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("Dispatch() error = %v, want ErrInvalidParameter", err)
	}
	if _, ok := b.Stats("nope"); ok {
		t.Error("Stats() found unbound interrupt")
	}
}

func TestServe(t *testing.T) {
	chA := make(chan struct{})
	chB := make(chan struct{})
	lineA := NewChanLine(chA, nil)
	lineB := NewChanLine(chB, nil)

	var mutex sync.Mutex
	counts := map[string]int{}
	handler := func(name string) func() {
		return func() {
			mutex.Lock()
			counts[name]++
			mutex.Unlock()
		}
	}

	b := NewBridge()
	b.Bind(hal.Interrupt{Name: "genet-a", Handler: handler("a")}, lineA)
	b.Bind(hal.Interrupt{Name: "genet-b", Handler: handler("b")}, lineB)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Serve(ctx) }()

	for range 3 {
		chA <- struct{}{}
	}
	chB <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for lineA.Acks() < 3 || lineB.Acks() < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("acks = %d, %d", lineA.Acks(), lineB.Acks())
		}
		time.Sleep(time.Millisecond)
	}

	if err := b.Serve(ctx); !errors.Is(err, pkg.ErrAlreadyRunning) {
		t.Errorf("second Serve() error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	mutex.Lock()
	defer mutex.Unlock()
	if counts["a"] != 3 || counts["b"] != 1 {
		t.Errorf("counts = %v, want a=3 b=1", counts)
	}
}

func TestServeLineFailure(t *testing.T) {
	b := NewBridge()
	b.Bind(hal.Interrupt{Name: "bad", Handler: func() {}}, failLine{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// A failed line is abandoned, so Serve returns without cancellation.
	if err := b.Serve(ctx); err != nil {
		t.Errorf("Serve() error = %v", err)
	}
	if ctx.Err() != nil {
		t.Error("Serve() waited for context")
	}
}

type failLine struct{}

func (failLine) Wait(context.Context) error { return errors.New("device gone") }
func (failLine) Acknowledge() error         { return nil }

func TestChanLineAck(t *testing.T) {
	ackErr := errors.New("nope")
	l := NewChanLine(nil, func() error { return ackErr })
	if err := l.Acknowledge(); !errors.Is(err, ackErr) {
		t.Errorf("Acknowledge() error = %v", err)
	}
	if l.Acks() != 1 {
		t.Errorf("Acks() = %d, want 1", l.Acks())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want Canceled", err)
	}
}
