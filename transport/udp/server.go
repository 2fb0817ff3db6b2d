// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Server sends and receives UDP datagrams, including optional multicast
// group membership (spec.md §4.5). Grounded on
// original_source/include/server/asio/udp_server.h and
// source/server/asio/udp_server.cpp's TryReceive (one fixed-size chunk per
// recvfrom call, delivered whole to the handler, buffer reset between
// reads — UDP preserves datagram boundaries so the growable stream buffer
// transport/tcp uses does not apply here).

package udp

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/solidcore/netcore/conn"
	"github.com/solidcore/netcore/netid"
	"github.com/solidcore/netcore/netutil"
	"github.com/solidcore/netcore/reactor"
)

const defaultChunkSize = 8 * 1024

// Handlers is the struct-of-callbacks a Server invokes on its bound strand.
type Handlers struct {
	OnStarted  func()
	OnStopped  func()
	OnReceived func(srv *Server, from *net.UDPAddr, data []byte)
	OnSent     func(srv *Server, to *net.UDPAddr, n int)
	OnError    func(srv *Server, err error)
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr            string
	SocketOptions   netutil.SocketOptions
	ChunkSize       int // per-datagram read buffer size; 0 = defaultChunkSize
	MulticastAddr   string
	Handlers        Handlers
}

// NewServerConfig builds a ServerConfig with spec.md §4.5 defaults.
func NewServerConfig(addr string, handlers Handlers) ServerConfig {
	return ServerConfig{
		Addr:          addr,
		SocketOptions: netutil.DefaultSocketOptions(),
		ChunkSize:     defaultChunkSize,
		Handlers:      handlers,
	}
}

// ErrServerStopped is returned by Stop on an already stopped server and by
// Send before the server has been started.
var ErrServerStopped = errors.New("udp: server stopped")

// Server owns one UDP socket and, optionally, a multicast group
// membership.
type Server struct {
	cfg ServerConfig

	ID     netid.ID
	Stats  conn.Stats
	Strand *reactor.Strand

	reactor     *reactor.Reactor
	ownsReactor bool

	mu            sync.RWMutex
	pc            *net.UDPConn
	multicastAddr *net.UDPAddr
	stopped       atomic.Bool
}

// NewServer constructs a Server bound to its own private single-loop
// reactor.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	r := reactor.NewReactor()
	if err := r.Start(1, false); err != nil {
		return nil, err
	}
	return &Server{
		cfg:         cfg,
		ID:          netid.New(),
		reactor:     r,
		ownsReactor: true,
		Strand:      r.NewStrand(),
	}, nil
}

// Start binds the UDP socket, optionally joins a multicast group, and
// begins the receive loop.
func (srv *Server) Start() error {
	addr, err := net.ResolveUDPAddr("udp", srv.cfg.Addr)
	if err != nil {
		return err
	}
	lc := netutil.ListenConfig(srv.cfg.SocketOptions)
	lpc, err := lc.ListenPacket(context.Background(), "udp", addr.String())
	if err != nil {
		return err
	}
	pc, ok := lpc.(*net.UDPConn)
	if !ok {
		lpc.Close()
		return errors.New("udp: listener is not a *net.UDPConn")
	}
	if err := netutil.ApplyUDP(pc, srv.cfg.SocketOptions); err != nil {
		pc.Close()
		return err
	}

	var mcast *net.UDPAddr
	if srv.cfg.MulticastAddr != "" {
		mcast, err = net.ResolveUDPAddr("udp", srv.cfg.MulticastAddr)
		if err != nil {
			pc.Close()
			return err
		}
		if err := netutil.JoinMulticastGroup(pc, mcast); err != nil {
			pc.Close()
			return err
		}
	}

	srv.mu.Lock()
	srv.pc = pc
	srv.multicastAddr = mcast
	srv.mu.Unlock()
	srv.stopped.Store(false)

	if srv.cfg.Handlers.OnStarted != nil {
		srv.Strand.Dispatch(srv.cfg.Handlers.OnStarted)
	}

	go srv.receiveLoop(pc)
	return nil
}

func (srv *Server) receiveLoop(pc *net.UDPConn) {
	chunk := make([]byte, srv.cfg.ChunkSize)
	for {
		n, from, err := pc.ReadFromUDP(chunk)
		if n > 0 {
			srv.Stats.AddDatagramRecv()
			srv.Stats.AddReceived(n)
			data := append([]byte(nil), chunk[:n]...)
			if srv.cfg.Handlers.OnReceived != nil {
				srv.Strand.Dispatch(func() { srv.cfg.Handlers.OnReceived(srv, from, data) })
			}
		}
		if err != nil {
			if srv.stopped.Load() {
				return
			}
			if srv.cfg.Handlers.OnError != nil {
				srv.Strand.Dispatch(func() { srv.cfg.Handlers.OnError(srv, err) })
			}
			if ne, ok := err.(net.Error); ok && !ne.Timeout() {
				return
			}
		}
	}
}

// Send transmits a single datagram to an arbitrary endpoint.
func (srv *Server) Send(to *net.UDPAddr, p []byte) error {
	srv.mu.RLock()
	pc := srv.pc
	srv.mu.RUnlock()
	if pc == nil {
		return ErrServerStopped
	}
	n, err := pc.WriteToUDP(p, to)
	if err != nil {
		return err
	}
	srv.Stats.AddDatagramSent()
	srv.Stats.AddSent(n)
	if srv.cfg.Handlers.OnSent != nil {
		srv.Strand.Dispatch(func() { srv.cfg.Handlers.OnSent(srv, to, n) })
	}
	return nil
}

// Multicast transmits a single datagram to the configured multicast
// endpoint (spec.md §4.5 "Multicast"); it returns an error if the server
// was not started with a MulticastAddr.
func (srv *Server) Multicast(p []byte) error {
	srv.mu.RLock()
	mcast := srv.multicastAddr
	srv.mu.RUnlock()
	if mcast == nil {
		return errors.New("udp: no multicast endpoint configured")
	}
	return srv.Send(mcast, p)
}

// Stop closes the UDP socket and leaves the multicast group if one was
// joined.
func (srv *Server) Stop() error {
	if !srv.stopped.CompareAndSwap(false, true) {
		return ErrServerStopped
	}
	srv.mu.Lock()
	pc, mcast := srv.pc, srv.multicastAddr
	srv.mu.Unlock()

	if pc != nil && mcast != nil {
		_ = netutil.LeaveMulticastGroup(pc, mcast)
	}
	if pc != nil {
		pc.Close()
	}
	if srv.cfg.Handlers.OnStopped != nil {
		srv.Strand.Dispatch(srv.cfg.Handlers.OnStopped)
	}
	if srv.ownsReactor {
		return srv.reactor.Stop()
	}
	return nil
}

// Restart stops (if running) and starts the server again.
func (srv *Server) Restart() error {
	if !srv.stopped.Load() {
		if err := srv.Stop(); err != nil {
			return err
		}
	}
	if srv.ownsReactor && !srv.reactor.IsStarted() {
		if err := srv.reactor.Start(1, false); err != nil {
			return err
		}
	}
	return srv.Start()
}

// Addr returns the server's bound local address, or nil if not started.
func (srv *Server) Addr() net.Addr {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	if srv.pc == nil {
		return nil
	}
	return srv.pc.LocalAddr()
}
