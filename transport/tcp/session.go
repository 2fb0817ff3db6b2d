// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Session is a server-accepted TCP connection (spec.md §4.3). Grounded on
// the teacher's internal/transport/websocket_listener.go
// bufferedConnTransport (wraps a net.Conn with a read loop feeding a
// handler) generalized to a double-buffered conn.SendQueue and a growable
// conn.RecvBuffer instead of a fixed-size buffer.

package tcp

import (
	"errors"
	"io"
	"net"
	"sync/atomic"

	"github.com/solidcore/netcore/conn"
	"github.com/solidcore/netcore/reactor"
)

// Session wraps one accepted net.TCPConn, serializing every handler
// invocation onto its bound conn.Endpoint's strand (spec.md §3 "Each
// endpoint is bound to exactly one loop").
type Session struct {
	*conn.Endpoint

	nc       *net.TCPConn
	handlers Handlers

	recv *conn.RecvBuffer
	send *conn.SendQueue

	receiving atomic.Bool
	sending   atomic.Bool
	closed    atomic.Bool

	// UserData lets the application stash arbitrary per-session state,
	// mirroring the teacher's pattern of attaching app data to a connection
	// without netcore needing to know its shape.
	UserData any
}

func newSession(r *reactor.Reactor, nc *net.TCPConn, h Handlers, recvLimit, sendLimit int) *Session {
	s := &Session{
		Endpoint: conn.NewEndpoint(r, recvLimit, sendLimit),
		nc:       nc,
		handlers: h,
		recv:     conn.NewRecvBuffer(0, recvLimit),
		send:     conn.NewSendQueue(sendLimit),
	}
	return s
}

// RemoteAddr returns the peer address, or nil while no connection exists (a
// Client that has not connected). After a close it still reports the last
// peer.
func (s *Session) RemoteAddr() net.Addr {
	return s.nc.RemoteAddr()
}

// start transitions the session to Connected, fires OnConnected, and begins
// the read loop. Called from the server's accept goroutine, which always
// wants reads flowing immediately.
func (s *Session) start() {
	s.connected()
	s.startReceiving()
}

// connected transitions the session to Connected and fires OnConnected
// without starting the read loop. A synchronous Client.Connect stops here;
// per spec.md §4.3 the caller must call Receive/ReceiveAsync to begin
// reading.
func (s *Session) connected() {
	s.SetState(conn.Connected)
	s.IncSessions()
	if s.handlers.OnConnected != nil {
		s.Strand.Dispatch(func() { s.handlers.OnConnected(s) })
	}
}

// startReceiving launches the read loop exactly once per connection.
func (s *Session) startReceiving() {
	if s.receiving.CompareAndSwap(false, true) {
		go s.readLoop()
	}
}

func (s *Session) readLoop() {
	chunk := 8 * 1024
	for {
		tail, err := s.recv.Tail(chunk)
		if err != nil {
			s.fail(err)
			return
		}
		n, err := s.nc.Read(tail)
		if n > 0 {
			s.recv.CommitWrite(n)
			s.AddReceived(n)
			s.deliver()
		}
		if err != nil {
			if errors.Is(err, io.EOF) || isBenignClose(err) {
				s.Disconnect()
			} else {
				s.fail(err)
			}
			return
		}
	}
}

// deliver hands the currently buffered bytes to OnReceived on the session's
// strand, then erases whatever prefix the handler reported consuming. It
// blocks until that runs: recv is owned by whichever goroutine is touching
// it at a given moment (spec.md §5), and readLoop is not a strand goroutine,
// so Dispatch here is always posted rather than run inline. Without waiting,
// readLoop would race the next Tail/CommitWrite against this Consume.
func (s *Session) deliver() {
	done := make(chan struct{})
	s.Strand.Dispatch(func() {
		defer close(done)
		if s.handlers.OnReceived == nil {
			s.recv.Consume(s.recv.Len())
			return
		}
		n := s.handlers.OnReceived(s, s.recv.Bytes())
		if n > 0 {
			s.recv.Consume(n)
		}
	})
	<-done
}

// Send enqueues p for asynchronous delivery and kicks the write loop if it
// is not already draining (spec.md §4.3 "try-send").
func (s *Session) Send(p []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if _, err := s.send.Append(p); err != nil {
		return err
	}
	s.AddSending(len(p))
	if s.sending.CompareAndSwap(false, true) {
		go s.writeLoop()
	}
	return nil
}

func (s *Session) writeLoop() {
	for {
		if !s.send.Swap() {
			if s.stopOrContinue() {
				continue
			}
			return
		}
		buf := s.send.Remaining()
		if len(buf) == 0 {
			if s.handlers.OnEmpty != nil {
				s.Strand.Dispatch(func() { s.handlers.OnEmpty(s) })
			}
			if s.stopOrContinue() {
				continue
			}
			return
		}
		n, err := s.nc.Write(buf)
		if n > 0 {
			s.send.Advance(n)
			s.SubSending(n)
			s.AddSent(n)
		}
		if err != nil {
			s.sending.Store(false)
			s.fail(err)
			return
		}
	}
}

// stopOrContinue clears sending, then re-checks Pending before actually
// giving up the loop. A concurrent Send can Append after the last Swap/
// Remaining saw nothing to do but before sending flips back to false; its
// CompareAndSwap(false, true) would then fail and it would return without
// scheduling a drain, stranding those bytes. Re-checking here after the
// clear closes that window.
func (s *Session) stopOrContinue() bool {
	s.sending.Store(false)
	if s.send.Pending() == 0 {
		return false
	}
	return s.sending.CompareAndSwap(false, true)
}

// Disconnect performs a benign, idempotent shutdown: closes the socket,
// fires OnDisconnected with a nil error exactly once, and decrements the
// session counter in this endpoint's own Stats.
func (s *Session) Disconnect() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.SetState(conn.Disconnecting)
	_ = s.nc.Close()
	s.SetState(conn.Disconnected)
	s.DecSessions()
	if s.handlers.OnDisconnected != nil {
		s.Strand.Dispatch(func() { s.handlers.OnDisconnected(s, nil) })
	}
}

func (s *Session) fail(err error) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.SetState(conn.Disconnecting)
	_ = s.nc.Close()
	s.SetState(conn.Disconnected)
	s.DecSessions()
	if s.handlers.OnError != nil {
		s.Strand.Dispatch(func() { s.handlers.OnError(s, err) })
	}
	if s.handlers.OnDisconnected != nil {
		s.Strand.Dispatch(func() { s.handlers.OnDisconnected(s, err) })
	}
}

// ErrSessionClosed is returned by Send once the session has disconnected.
var ErrSessionClosed = errors.New("tcp: session closed")

// isBenignClose reports whether err is exactly the "use of closed network
// connection" error produced when our own Disconnect/fail races a
// concurrent Read — expected, and not surfaced through OnError.
func isBenignClose(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
