// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Client is the active-open counterpart of Session (spec.md §4.3), offering
// both synchronous (deadline-bound) and asynchronous connect/send/receive
// variants plus a bounded reconnect policy. Grounded on the teacher's
// client/client.go WebSocketClient (reconnect loop, atomic connected/closed
// flags, per-call timeouts) generalized off WebSocket framing onto raw
// byte streams.

package tcp

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/solidcore/netcore/conn"
	"github.com/solidcore/netcore/netutil"
	"github.com/solidcore/netcore/reactor"
)

// ErrClientClosed is returned by SendSync and ReceiveSync once the client's
// connection has been closed.
var ErrClientClosed = errors.New("tcp: client closed")

// Client is an active-open TCP endpoint.
type Client struct {
	*Session
	cfg         ClientConfig
	reactor     *reactor.Reactor
	ownsReactor bool
}

// NewClient constructs a Client bound to its own private single-loop
// reactor.
func NewClient(cfg ClientConfig) (*Client, error) {
	r, err := newReactorFor(1)
	if err != nil {
		return nil, err
	}
	return NewClientWithReactor(cfg, r, true), nil
}

// NewClientWithReactor constructs a Client scheduled on a caller-supplied,
// already-started reactor.
func NewClientWithReactor(cfg ClientConfig, r *reactor.Reactor, ownsReactor bool) *Client {
	c := &Client{
		cfg:         cfg,
		reactor:     r,
		ownsReactor: ownsReactor,
	}
	c.Session = &Session{
		Endpoint: conn.NewEndpoint(r, cfg.RecvBufferLimit, cfg.SendBufferLimit),
		handlers: cfg.Handlers,
		recv:     conn.NewRecvBuffer(0, cfg.RecvBufferLimit),
		send:     conn.NewSendQueue(cfg.SendBufferLimit),
	}
	return c
}

// Connect dials synchronously, honoring cfg.ConnectTimeout (0 = no
// deadline), and schedules OnConnected on the client's strand; the handler
// may run after Connect has returned.
func (c *Client) Connect() error {
	dialer := &net.Dialer{}
	ctx := context.Background()
	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
	}
	nc, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return err
	}
	tcpConn, ok := nc.(*net.TCPConn)
	if !ok {
		nc.Close()
		return errors.New("tcp: dialed connection is not a *net.TCPConn")
	}
	if err := netutil.ApplyTCP(tcpConn, c.cfg.SocketOptions); err != nil {
		tcpConn.Close()
		return err
	}
	c.Session.nc = tcpConn
	c.Session.closed.Store(false)
	c.Session.receiving.Store(false)
	c.Session.connected()
	return nil
}

// ConnectAsync dials in a background goroutine and reports the outcome
// through done. Unlike the synchronous Connect, an async connect auto-starts
// reads (spec.md §4.3).
func (c *Client) ConnectAsync(done func(error)) {
	go func() {
		err := c.Connect()
		if err == nil {
			c.Session.startReceiving()
		}
		if done != nil {
			done(err)
		}
	}()
}

// Receive starts the read loop if it is not already running. A synchronous
// Connect leaves reads un-started, so call Receive (or ReceiveAsync) once
// the caller is ready to begin receiving (spec.md §4.3).
func (c *Client) Receive() { c.Session.startReceiving() }

// ReceiveAsync is Receive, named for symmetry with ConnectAsync per
// spec.md's "receive"/"receive_async" wording — starting the read loop is
// inherently asynchronous either way.
func (c *Client) ReceiveAsync() { c.Session.startReceiving() }

// Reconnect retries Connect up to cfg.ReconnectMax times (0 = unlimited
// attempts until the first success), sleeping cfg.ReconnectInterval between
// attempts.
func (c *Client) Reconnect() error {
	var lastErr error
	for attempt := 0; c.cfg.ReconnectMax <= 0 || attempt < c.cfg.ReconnectMax; attempt++ {
		if attempt > 0 && c.cfg.ReconnectInterval > 0 {
			time.Sleep(c.cfg.ReconnectInterval)
		}
		if err := c.Connect(); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

// ReconnectAsync runs Reconnect in a background goroutine and reports the
// outcome through done, auto-starting reads on success like ConnectAsync.
func (c *Client) ReconnectAsync(done func(error)) {
	go func() {
		err := c.Reconnect()
		if err == nil {
			c.Session.startReceiving()
		}
		if done != nil {
			done(err)
		}
	}()
}

// SendSync writes p synchronously, honoring cfg.WriteTimeout (0 = no
// deadline), bypassing the asynchronous send queue entirely.
func (c *Client) SendSync(p []byte) error {
	if c.Session.closed.Load() {
		return ErrClientClosed
	}
	if c.cfg.WriteTimeout > 0 {
		if err := c.Session.nc.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
			return err
		}
		defer c.Session.nc.SetWriteDeadline(time.Time{})
	}
	n, err := c.Session.nc.Write(p)
	if n > 0 {
		c.AddSent(n)
	}
	return err
}

// ReceiveSync blocks for a single Read, honoring cfg.ReadTimeout (0 = no
// deadline), and returns the bytes read without going through OnReceived.
func (c *Client) ReceiveSync(buf []byte) (int, error) {
	if c.Session.closed.Load() {
		return 0, ErrClientClosed
	}
	if c.cfg.ReadTimeout > 0 {
		if err := c.Session.nc.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			return 0, err
		}
		defer c.Session.nc.SetReadDeadline(time.Time{})
	}
	n, err := c.Session.nc.Read(buf)
	if n > 0 {
		c.AddReceived(n)
	}
	return n, err
}

// Reactor returns the reactor this Client's strand is scheduled on, so
// callers building further reactor-scoped primitives (timers, additional
// strands) on top of a Client don't need a second one.
func (c *Client) Reactor() *reactor.Reactor { return c.reactor }

// Close disconnects the underlying session and, if this Client owns its
// reactor, stops it too.
func (c *Client) Close() error {
	c.Session.Disconnect()
	if c.ownsReactor {
		return c.reactor.Stop()
	}
	return nil
}
