// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Session is a server-accepted TLS connection, carrying the extra
// Handshaking/Handshaked sub-states original_source/ssl_session.h models
// (onConnected fires at TCP accept, onHandshaked only after the TLS
// handshake completes) that plain transport/tcp sessions don't need.

package tls

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"

	"github.com/solidcore/netcore/conn"
	"github.com/solidcore/netcore/reactor"
)

// Handlers is the struct-of-callbacks a tls.Session/Client invokes on its
// bound strand.
type Handlers struct {
	OnConnected    func(s *Session)
	OnHandshaked   func(s *Session)
	OnDisconnected func(s *Session, err error)
	OnReceived     func(s *Session, data []byte) (consumed int)
	OnEmpty        func(s *Session)
	OnError        func(s *Session, err error)
}

// Session wraps one accepted *tls.Conn.
type Session struct {
	*conn.Endpoint

	tc       *tls.Conn
	handlers Handlers

	recv *conn.RecvBuffer
	send *conn.SendQueue

	receiving atomic.Bool
	sending   atomic.Bool
	closed    atomic.Bool

	UserData any
}

func newSession(r *reactor.Reactor, tc *tls.Conn, h Handlers, recvLimit, sendLimit int) *Session {
	return &Session{
		Endpoint: conn.NewEndpoint(r, recvLimit, sendLimit),
		tc:       tc,
		handlers: h,
		recv:     conn.NewRecvBuffer(0, recvLimit),
		send:     conn.NewSendQueue(sendLimit),
	}
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() net.Addr { return s.tc.RemoteAddr() }

// IsHandshaked reports whether the TLS handshake has completed.
func (s *Session) IsHandshaked() bool { return s.State() == conn.Handshaked }

// start is the server-side entry point: transport is already connected, so
// it fires OnConnected immediately, runs the handshake in the background,
// and auto-starts reads once it succeeds.
func (s *Session) start() {
	s.afterConnect()
	go func() {
		if s.handshakeDone(s.tc.Handshake()) {
			s.startReceiving()
		}
	}()
}

// afterConnect transitions a freshly connected transport to Handshaking and
// fires OnConnected. Both Server (after accept) and Client (after dial)
// call this before driving the handshake themselves.
func (s *Session) afterConnect() {
	s.SetState(conn.Connecting)
	s.IncSessions()
	if s.handlers.OnConnected != nil {
		s.Strand.Dispatch(func() { s.handlers.OnConnected(s) })
	}
	s.SetState(conn.Handshaking)
}

// handshakeDone records the handshake's outcome: on success it transitions
// to Handshaked, fires OnHandshaked, and reports success; on failure it
// fails the session exactly as a later I/O error would and reports failure.
// It does not itself start the read loop — per spec.md §4.3/§4.4, whether
// reads auto-start depends on which caller drove the handshake (server
// accept and async connect do; a synchronous connect does not).
func (s *Session) handshakeDone(err error) bool {
	if err != nil {
		s.fail(err)
		return false
	}
	s.SetState(conn.Handshaked)
	if s.handlers.OnHandshaked != nil {
		s.Strand.Dispatch(func() { s.handlers.OnHandshaked(s) })
	}
	return true
}

// startReceiving launches the read loop exactly once per connection.
func (s *Session) startReceiving() {
	if s.receiving.CompareAndSwap(false, true) {
		go s.readLoop()
	}
}

func (s *Session) readLoop() {
	const chunk = 8 * 1024
	for {
		tail, err := s.recv.Tail(chunk)
		if err != nil {
			s.fail(err)
			return
		}
		n, err := s.tc.Read(tail)
		if n > 0 {
			s.recv.CommitWrite(n)
			s.AddReceived(n)
			s.deliver()
		}
		if err != nil {
			if errors.Is(err, io.EOF) || isBenign(err) {
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

// Send enqueues p for asynchronous delivery.
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
		n, err := s.tc.Write(buf)
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

// Disconnect performs a benign, idempotent shutdown.
func (s *Session) Disconnect() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.SetState(conn.Disconnecting)
	_ = s.tc.Close()
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
	_ = s.tc.Close()
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
var ErrSessionClosed = errors.New("tls: session closed")

// isBenign matches the teacher's and original's suppression of expected
// shutdown errors (spec.md §7 "benign disconnects never reach OnError"):
// closed, reset, aborted or refused connections, a truncated TLS stream, a
// bad record MAC, and a record header of the wrong version.
func isBenign(err error) bool {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var rhe tls.RecordHeaderError
	if errors.As(err, &rhe) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "reset by peer") ||
		strings.Contains(msg, "connection aborted") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "bad record MAC")
}
