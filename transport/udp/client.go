// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Client is a "connected" UDP socket bound to one remote endpoint — no
// accept/handshake, matching original_source/include/server/asio/udp_client.h:
// a thin wrapper that reads/writes datagrams from/to a fixed server
// endpoint.

package udp

import (
	"errors"
	"net"
	"sync/atomic"

	"github.com/solidcore/netcore/conn"
	"github.com/solidcore/netcore/netid"
	"github.com/solidcore/netcore/netutil"
	"github.com/solidcore/netcore/reactor"
)

// ClientHandlers is the struct-of-callbacks a Client invokes on its bound
// strand.
type ClientHandlers struct {
	OnConnected    func(c *Client)
	OnDisconnected func(c *Client)
	OnReceived     func(c *Client, data []byte)
	OnSent         func(c *Client, n int)
	OnError        func(c *Client, err error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Addr          string
	SocketOptions netutil.SocketOptions
	ChunkSize     int
	Handlers      ClientHandlers
}

// NewClientConfig builds a ClientConfig with spec.md §4.5 defaults.
func NewClientConfig(addr string, handlers ClientHandlers) ClientConfig {
	return ClientConfig{
		Addr:          addr,
		SocketOptions: netutil.DefaultSocketOptions(),
		ChunkSize:     defaultChunkSize,
		Handlers:      handlers,
	}
}

// ErrClientClosed is returned once Close has been called.
var ErrClientClosed = errors.New("udp: client closed")

// Client is a datagram endpoint "connected" to one remote address.
type Client struct {
	cfg ClientConfig

	ID     netid.ID
	Stats  conn.Stats
	Strand *reactor.Strand

	reactor     *reactor.Reactor
	ownsReactor bool

	pc      *net.UDPConn
	remote  *net.UDPAddr
	closed  atomic.Bool
}

// NewClient constructs a Client bound to its own private single-loop
// reactor.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	r := reactor.NewReactor()
	if err := r.Start(1, false); err != nil {
		return nil, err
	}
	return &Client{
		cfg:         cfg,
		ID:          netid.New(),
		reactor:     r,
		ownsReactor: true,
		Strand:      r.NewStrand(),
	}, nil
}

// Connect resolves the configured remote address and binds a local UDP
// socket, then begins the receive loop.
func (c *Client) Connect() error {
	remote, err := net.ResolveUDPAddr("udp", c.cfg.Addr)
	if err != nil {
		return err
	}
	pc, err := net.ListenUDP("udp", nil)
	if err != nil {
		return err
	}
	if err := netutil.ApplyUDP(pc, c.cfg.SocketOptions); err != nil {
		pc.Close()
		return err
	}
	c.pc = pc
	c.remote = remote
	c.closed.Store(false)

	if c.cfg.Handlers.OnConnected != nil {
		c.Strand.Dispatch(func() { c.cfg.Handlers.OnConnected(c) })
	}
	go c.receiveLoop()
	return nil
}

func (c *Client) receiveLoop() {
	chunk := make([]byte, c.cfg.ChunkSize)
	for {
		n, from, err := c.pc.ReadFromUDP(chunk)
		if n > 0 && sameUDPAddr(from, c.remote) {
			c.Stats.AddDatagramRecv()
			c.Stats.AddReceived(n)
			data := append([]byte(nil), chunk[:n]...)
			if c.cfg.Handlers.OnReceived != nil {
				c.Strand.Dispatch(func() { c.cfg.Handlers.OnReceived(c, data) })
			}
		}
		if err != nil {
			if c.closed.Load() {
				return
			}
			if c.cfg.Handlers.OnError != nil {
				c.Strand.Dispatch(func() { c.cfg.Handlers.OnError(c, err) })
			}
			if ne, ok := err.(net.Error); ok && !ne.Timeout() {
				return
			}
		}
	}
}

func sameUDPAddr(a, b *net.UDPAddr) bool {
	return a != nil && b != nil && a.IP.Equal(b.IP) && a.Port == b.Port
}

// Send transmits a single datagram to the connected remote endpoint.
func (c *Client) Send(p []byte) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	n, err := c.pc.WriteToUDP(p, c.remote)
	if err != nil {
		return err
	}
	c.Stats.AddDatagramSent()
	c.Stats.AddSent(n)
	if c.cfg.Handlers.OnSent != nil {
		c.Strand.Dispatch(func() { c.cfg.Handlers.OnSent(c, n) })
	}
	return nil
}

// Close disconnects the client and, if owned, stops its reactor.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}
	if c.pc != nil {
		c.pc.Close()
	}
	if c.cfg.Handlers.OnDisconnected != nil {
		c.Strand.Dispatch(func() { c.cfg.Handlers.OnDisconnected(c) })
	}
	if c.ownsReactor {
		return c.reactor.Stop()
	}
	return nil
}
