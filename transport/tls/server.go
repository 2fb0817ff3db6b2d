// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Server accepts raw TCP connections and wraps each one in a server-side
// TLS handshake before handing it to a Session, mirroring
// original_source/include/server/asio/ssl_server.h's accept-then-handshake
// sequencing.

package tls

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"

	"github.com/solidcore/netcore/netutil"
	"github.com/solidcore/netcore/reactor"
)

// ErrServerStopped is returned once the server has been stopped.
var ErrServerStopped = errors.New("tls: server stopped")

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr    string
	Context *Context
	Workers int

	SocketOptions   netutil.SocketOptions
	RecvBufferLimit int
	SendBufferLimit int

	NewHandlers func() Handlers
}

// NewServerConfig builds a ServerConfig with spec.md §4.4 defaults.
func NewServerConfig(addr string, ctx *Context, newHandlers func() Handlers) ServerConfig {
	return ServerConfig{
		Addr:          addr,
		Context:       ctx,
		SocketOptions: netutil.DefaultSocketOptions(),
		NewHandlers:   newHandlers,
	}
}

// Server listens on one TCP address, TLS-wraps every accepted connection,
// and maintains the set of live Sessions.
type Server struct {
	cfg         ServerConfig
	reactor     *reactor.Reactor
	ownsReactor bool

	mu       sync.RWMutex
	ln       *net.TCPListener
	sessions map[*Session]struct{}
	stopped  bool
}

// NewServer constructs a Server bound to its own private reactor.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Context == nil || len(cfg.Context.Config.Certificates) == 0 {
		return nil, ErrNoCertificate
	}
	r := reactor.NewReactor()
	if err := r.Start(cfg.Workers, false); err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, reactor: r, ownsReactor: true, sessions: make(map[*Session]struct{})}, nil
}

// Start binds the listening socket and begins accepting connections.
func (srv *Server) Start() error {
	lc := netutil.ListenConfig(srv.cfg.SocketOptions)
	ln, err := lc.Listen(context.Background(), "tcp", srv.cfg.Addr)
	if err != nil {
		return err
	}
	tln, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return errors.New("tls: listener is not a *net.TCPListener")
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

		tc := tls.Server(nc, srv.cfg.Context.Config)
		h := srv.cfg.NewHandlers()
		s := newSession(srv.reactor, tc, h, srv.cfg.RecvBufferLimit, srv.cfg.SendBufferLimit)
		orig := h.OnDisconnected
		s.handlers.OnDisconnected = func(sess *Session, err error) {
			srv.mu.Lock()
			delete(srv.sessions, s)
			srv.mu.Unlock()
			if orig != nil {
				orig(sess, err)
			}
		}

		srv.mu.Lock()
		srv.sessions[s] = struct{}{}
		srv.mu.Unlock()

		s.start()
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

// Multicast enqueues p for delivery to every live, handshaked session.
func (srv *Server) Multicast(p []byte) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	for s := range srv.sessions {
		if s.IsHandshaked() {
			_ = s.Send(p)
		}
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
