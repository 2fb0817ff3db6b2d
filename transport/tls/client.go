// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Client is the active-open counterpart of Session, mirroring
// original_source/include/server/asio/ssl_client.h's connect-then-handshake
// sequencing and the teacher's client/client.go reconnect policy.

package tls

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"

	"github.com/solidcore/netcore/conn"
	"github.com/solidcore/netcore/reactor"
)

// ErrClientClosed names the closed-client condition. No Client method
// returns it: Send on a closed client reports ErrSessionClosed.
var ErrClientClosed = errors.New("tls: client closed")

// ClientConfig configures a Client.
type ClientConfig struct {
	Addr    string
	Context *Context

	RecvBufferLimit int
	SendBufferLimit int

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	ReconnectMax      int
	ReconnectInterval time.Duration

	Handlers Handlers
}

// NewClientConfig builds a ClientConfig with spec.md §4.4 defaults.
func NewClientConfig(addr string, ctx *Context, handlers Handlers) ClientConfig {
	return ClientConfig{
		Addr:              addr,
		Context:           ctx,
		ConnectTimeout:    10 * time.Second,
		ReconnectMax:      3,
		ReconnectInterval: time.Second,
		Handlers:          handlers,
	}
}

// Client is an active-open TLS endpoint.
type Client struct {
	*Session
	cfg         ClientConfig
	reactor     *reactor.Reactor
	ownsReactor bool
}

// NewClient constructs a Client bound to its own private single-loop
// reactor.
func NewClient(cfg ClientConfig) (*Client, error) {
	r := reactor.NewReactor()
	if err := r.Start(1, false); err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, reactor: r, ownsReactor: true}
	c.Session = &Session{
		Endpoint: conn.NewEndpoint(r, cfg.RecvBufferLimit, cfg.SendBufferLimit),
		handlers: cfg.Handlers,
		recv:     conn.NewRecvBuffer(0, cfg.RecvBufferLimit),
		send:     conn.NewSendQueue(cfg.SendBufferLimit),
	}
	return c, nil
}

// Connect dials and performs the TLS handshake synchronously, honoring
// cfg.ConnectTimeout for the TCP dial.
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
	tc := tls.Client(nc, c.cfg.Context.Config)
	c.Session.tc = tc
	c.Session.closed.Store(false)
	c.Session.receiving.Store(false)
	c.Session.afterConnect()

	// Handshake synchronously, matching ssl_client.h's Connect contract.
	// Reads are not auto-started here (spec.md §4.4); call Receive once
	// ready.
	err = tc.HandshakeContext(ctx)
	c.Session.handshakeDone(err)
	return err
}

// ConnectAsync dials and handshakes in a background goroutine, auto-starting
// reads on success (spec.md §4.4).
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
// the caller is ready to begin receiving (spec.md §4.4).
func (c *Client) Receive() { c.Session.startReceiving() }

// ReceiveAsync is Receive, named for symmetry with ConnectAsync per
// spec.md's "receive"/"receive_async" wording.
func (c *Client) ReceiveAsync() { c.Session.startReceiving() }

// Reconnect retries Connect up to cfg.ReconnectMax times.
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

// Reactor returns the reactor this Client's strand is scheduled on.
func (c *Client) Reactor() *reactor.Reactor { return c.reactor }

// Close disconnects the session and, if owned, stops the reactor.
func (c *Client) Close() error {
	c.Session.Disconnect()
	if c.ownsReactor {
		return c.reactor.Stop()
	}
	return nil
}
