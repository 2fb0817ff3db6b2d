// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Server accepts TCP connections and hands each one to a fresh Session
// (spec.md §4.3). Grounded on the teacher's transport/tcp/listener.go
// accept-loop shape (net.Listen + go handleConn per connection), replacing
// its inline WebSocket handshake with a generic, handshake-agnostic session
// so httpmsg/websocket can be layered on top independently.

package tcp

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/solidcore/netcore/netutil"
	"github.com/solidcore/netcore/reactor"
)

// ErrServerStopped is returned by Stop when the server has already been
// stopped.
var ErrServerStopped = errors.New("tcp: server stopped")

// Server listens on one TCP address and maintains the set of live Sessions
// it has accepted.
type Server struct {
	cfg         ServerConfig
	reactor     *reactor.Reactor
	ownsReactor bool

	mu       sync.RWMutex
	ln       *net.TCPListener
	sessions map[*Session]struct{}
	stopped  bool
}

// NewServer constructs a Server bound to its own private reactor, started
// with cfg.Workers loops.
func NewServer(cfg ServerConfig) (*Server, error) {
	r, err := newReactorFor(cfg.Workers)
	if err != nil {
		return nil, err
	}
	return NewServerWithReactor(cfg, r, true), nil
}

// NewServerWithReactor constructs a Server that schedules its sessions on a
// caller-supplied, already-started reactor; ownsReactor controls whether
// Stop also stops it.
func NewServerWithReactor(cfg ServerConfig, r *reactor.Reactor, ownsReactor bool) *Server {
	return &Server{
		cfg:         cfg,
		reactor:     r,
		ownsReactor: ownsReactor,
		sessions:    make(map[*Session]struct{}),
	}
}

// Start binds the listening socket and begins accepting connections in a
// background goroutine. It returns once the socket is bound and listening.
func (srv *Server) Start() error {
	lc := netutil.ListenConfig(srv.cfg.SocketOptions)
	ln, err := lc.Listen(context.Background(), "tcp", srv.cfg.Addr)
	if err != nil {
		return err
	}
	tln, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return errors.New("tcp: listener is not a *net.TCPListener")
	}

	srv.mu.Lock()
	srv.ln = tln
	srv.stopped = false
	srv.mu.Unlock()

	go srv.acceptLoop(tln)
	return nil
}

func (srv *Server) acceptLoop(ln *net.TCPListener) {
	for {
		nc, err := ln.AcceptTCP()
		if err != nil {
			srv.mu.RLock()
			stopped := srv.stopped
			srv.mu.RUnlock()
			if stopped {
				return
			}
			continue
		}
		if err := netutil.ApplyTCP(nc, srv.cfg.SocketOptions); err != nil {
			nc.Close()
			continue
		}

		h := srv.cfg.NewHandlers()
		s := newSession(srv.reactor, nc, h, srv.cfg.RecvBufferLimit, srv.cfg.SendBufferLimit)
		s.handlers.OnDisconnected = wrapOnDisconnected(srv, s, h.OnDisconnected)

		srv.mu.Lock()
		srv.sessions[s] = struct{}{}
		srv.mu.Unlock()

		s.start()
	}
}

// wrapOnDisconnected removes s from the server's live-session set in
// addition to whatever the application's own OnDisconnected does.
func wrapOnDisconnected(srv *Server, s *Session, orig func(*Session, error)) func(*Session, error) {
	return func(sess *Session, err error) {
		srv.mu.Lock()
		delete(srv.sessions, s)
		srv.mu.Unlock()
		if orig != nil {
			orig(sess, err)
		}
	}
}

// Stop closes the listening socket and disconnects every live session.
func (srv *Server) Stop() error {
	srv.mu.Lock()
	if srv.stopped {
		srv.mu.Unlock()
		return ErrServerStopped
	}
	srv.stopped = true
	ln := srv.ln
	srv.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	srv.DisconnectAll()

	if srv.ownsReactor {
		return srv.reactor.Stop()
	}
	return nil
}

// Restart stops (if running) and starts the server again on the same
// address.
func (srv *Server) Restart() error {
	srv.mu.RLock()
	stopped := srv.stopped
	srv.mu.RUnlock()
	if !stopped {
		if err := srv.Stop(); err != nil {
			return err
		}
	}
	if srv.ownsReactor && !srv.reactor.IsStarted() {
		if err := srv.reactor.Start(srv.cfg.Workers, false); err != nil {
			return err
		}
	}
	return srv.Start()
}

// Multicast enqueues p for asynchronous delivery to every currently live
// session (spec.md §4.3 "broadcast").
func (srv *Server) Multicast(p []byte) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	for s := range srv.sessions {
		_ = s.Send(p)
	}
}

// DisconnectAll forcibly disconnects every live session.
func (srv *Server) DisconnectAll() {
	srv.mu.RLock()
	sessions := make([]*Session, 0, len(srv.sessions))
	for s := range srv.sessions {
		sessions = append(sessions, s)
	}
	srv.mu.RUnlock()
	for _, s := range sessions {
		s.Disconnect()
	}
}

// SessionCount returns the number of currently live sessions.
func (srv *Server) SessionCount() int {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return len(srv.sessions)
}

// Addr returns the server's bound listening address, or nil if not started.
func (srv *Server) Addr() net.Addr {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	if srv.ln == nil {
		return nil
	}
	return srv.ln.Addr()
}
