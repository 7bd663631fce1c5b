package rpc

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ardnew/softnic/hal"
	"github.com/ardnew/softnic/pkg"
)

// Control is the set of operations a Server exposes.
type Control interface {
	Transmit(length int) error
	GetMACAddress(ctx context.Context) (hal.MACAddress, error)
	ReceiveFrames() (length, remaining int, err error)
}

// Server answers control requests and pushes has-data events.
type Server struct {
	ctrl Control

	mutex sync.Mutex
	conns map[*serverConn]struct{}
	wg    sync.WaitGroup

	events atomic.Uint64
}

type serverConn struct {
	conn       net.Conn
	writeMutex sync.Mutex
	subscribed atomic.Bool
	pending    chan struct{}
}

// NewServer creates a server for ctrl.
func NewServer(ctrl Control) *Server {
	return &Server{
		ctrl:  ctrl,
		conns: make(map[*serverConn]struct{}),
	}
}

// Listen creates a Unix socket listener at path, replacing a stale socket.
func Listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return net.Listen("unix", path)
}

// Serve accepts connections on ln until ctx is done. It closes ln and all
// connections before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	pkg.LogInfo(pkg.ComponentRPC, "control server listening", "addr", ln.Addr().String())

	var err error
	for {
		var conn net.Conn
		conn, err = ln.Accept()
		if err != nil {
			break
		}

		sc := &serverConn{conn: conn, pending: make(chan struct{}, 1)}
		s.mutex.Lock()
		s.conns[sc] = struct{}{}
		s.mutex.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, sc)
		}()
	}

	cancel()
	s.mutex.Lock()
	for sc := range s.conns {
		sc.conn.Close()
	}
	s.mutex.Unlock()
	s.wg.Wait()

	if parent.Err() != nil {
		return nil
	}
	return err
}

// handle serves one connection until it closes. Requests run one at a
// time in arrival order; the connection context is canceled as soon as the
// peer goes away, which ends a request still waiting on the driver.
func (s *Server) handle(ctx context.Context, sc *serverConn) {
	ctx, cancel := context.WithCancel(ctx)
	requests := make(chan message)
	readDone := make(chan struct{})
	defer func() {
		cancel()
		sc.conn.Close()
		<-readDone
		s.mutex.Lock()
		delete(s.conns, sc)
		s.mutex.Unlock()
	}()

	go func() {
		defer close(readDone)
		defer cancel()
		s.readRequests(ctx, sc, requests)
	}()
	go s.pushEvents(ctx, sc)

	for {
		select {
		case msg := <-requests:
			reply := s.dispatch(ctx, sc, msg)
			if err := sc.write(MsgResponse, reply); err != nil {
				pkg.LogDebug(pkg.ComponentRPC, "connection write failed", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readRequests forwards requests read from the connection until it fails
// or ctx is done.
func (s *Server) readRequests(ctx context.Context, sc *serverConn, out chan<- message) {
	for {
		msg, err := readMessage(sc.conn)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				pkg.LogDebug(pkg.ComponentRPC, "connection read failed", "error", err)
			}
			return
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// dispatch runs one request and returns the Response payload.
func (s *Server) dispatch(ctx context.Context, sc *serverConn, msg message) []byte {
	switch msg.typ {
	case MsgTransmit:
		if len(msg.payload) != 4 {
			return response(pkg.StatusInvalidParameter)
		}
		length := binary.LittleEndian.Uint32(msg.payload)
		err := s.ctrl.Transmit(int(length))
		return response(pkg.StatusOf(err))

	case MsgGetMAC:
		mac, err := s.ctrl.GetMACAddress(ctx)
		if err != nil {
			return response(pkg.StatusOf(err))
		}
		return response(pkg.StatusSuccess, mac[:]...)

	case MsgReceive:
		length, remaining, err := s.ctrl.ReceiveFrames()
		var data [8]byte
		binary.LittleEndian.PutUint32(data[0:4], uint32(length))
		binary.LittleEndian.PutUint32(data[4:8], uint32(remaining))
		return response(pkg.StatusOf(err), data[:]...)

	case MsgSubscribe:
		sc.subscribed.Store(true)
		return response(pkg.StatusSuccess)

	default:
		pkg.LogWarn(pkg.ComponentRPC, "unknown request type", "type", msg.typ)
		return response(pkg.StatusInvalidParameter)
	}
}

// pushEvents writes a HasData event whenever one is pending.
func (s *Server) pushEvents(ctx context.Context, sc *serverConn) {
	for {
		select {
		case <-sc.pending:
			if err := sc.write(MsgHasData, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Notify signals every subscribed connection that a frame is available.
// It never blocks; events pending on a connection coalesce.
func (s *Server) Notify() {
	s.events.Add(1)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for sc := range s.conns {
		if !sc.subscribed.Load() {
			continue
		}
		select {
		case sc.pending <- struct{}{}:
		default:
		}
	}
}

// Events returns the number of Notify calls.
func (s *Server) Events() uint64 {
	return s.events.Load()
}

func (sc *serverConn) write(typ byte, payload []byte) error {
	sc.writeMutex.Lock()
	defer sc.writeMutex.Unlock()
	return writeMessage(sc.conn, typ, payload)
}
