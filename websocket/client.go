// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Client-side upgrade: connect over TLS, send the upgrade request, await
// and verify the 101 response, then switch to frame mode — grounded on the
// teacher's client/client.go dial-then-handshake sequencing with the
// WebSocket-specific second handshake (HTTP upgrade, not just TLS) layered
// on top per spec.md §4.7 "Handshake (client)".

package websocket

import (
	"errors"
	"time"

	"github.com/solidcore/netcore/httpmsg"
	"github.com/solidcore/netcore/transport/tls"
)

var (
	// ErrHandshakeTimeout is returned by Connect when the server never
	// completes the WebSocket upgrade within ConnectTimeout.
	ErrHandshakeTimeout = errors.New("websocket: upgrade handshake timed out")
	// ErrNotUpgraded is returned by Send before the upgrade handshake has
	// completed, and by Connect when the connection closes cleanly before
	// upgrading.
	ErrNotUpgraded = errors.New("websocket: connection not yet upgraded")
)

// ClientConfig configures a Client.
type ClientConfig struct {
	Addr    string
	Context *tls.Context

	URL      string // e.g. "/chat"
	Origin   string // optional
	Protocol string // optional Sec-WebSocket-Protocol

	Handlers Handlers

	ConnectTimeout time.Duration
}

// Client performs the WSS connect-then-upgrade sequence and, once
// upgraded, behaves as a Session.
type Client struct {
	tls      *tls.Client
	handlers Handlers

	url, origin, protocol string
	key                   string
	resp                  *httpmsg.Response

	ws             *Session
	handshakeDone  chan error
	connectTimeout time.Duration
}

// NewClient constructs a Client bound to its own private TLS client.
func NewClient(cfg ClientConfig) (*Client, error) {
	c := &Client{
		handlers:       cfg.Handlers,
		url:            cfg.URL,
		origin:         cfg.Origin,
		protocol:       cfg.Protocol,
		resp:           httpmsg.NewResponse(),
		handshakeDone:  make(chan error, 1),
		connectTimeout: cfg.ConnectTimeout,
	}
	if c.connectTimeout <= 0 {
		c.connectTimeout = 10 * time.Second
	}

	tcfg := tls.NewClientConfig(cfg.Addr, cfg.Context, tls.Handlers{
		OnHandshaked: func(s *tls.Session) { c.sendUpgradeRequest(s) },
		OnReceived:   func(s *tls.Session, data []byte) int { return c.onReceived(s, data) },
		OnDisconnected: func(s *tls.Session, err error) {
			select {
			case c.handshakeDone <- errNotUpgradedOr(err):
			default:
			}
			if c.ws != nil && c.handlers.OnDisconnected != nil {
				c.handlers.OnDisconnected(c.ws, err)
			}
		},
	})
	if cfg.ConnectTimeout > 0 {
		tcfg.ConnectTimeout = cfg.ConnectTimeout
	}

	tc, err := tls.NewClient(tcfg)
	if err != nil {
		return nil, err
	}
	c.tls = tc
	return c, nil
}

func errNotUpgradedOr(err error) error {
	if err != nil {
		return err
	}
	return ErrNotUpgraded
}

func (c *Client) sendUpgradeRequest(s *tls.Session) {
	req, key := BuildUpgradeRequest(c.url, c.origin, c.protocol)
	c.key = key
	_ = s.Send(req.Bytes())
}

func (c *Client) onReceived(s *tls.Session, data []byte) int {
	if c.ws != nil {
		return c.ws.onWSBytes(data)
	}

	var err error
	switch c.resp.State() {
	case httpmsg.StatePendingBody:
		err = c.resp.ReceiveBody(data)
	default:
		err = c.resp.ReceiveHeader(data)
	}
	if err != nil {
		c.fail(s, err)
		return len(data)
	}
	if c.resp.State() != httpmsg.StateReady {
		return len(data)
	}

	if err := VerifyUpgradeResponse(c.resp, c.key); err != nil {
		c.fail(s, err)
		return len(data)
	}
	c.ws = newSession(s, c.handlers, true)
	c.handshakeDone <- nil
	if c.handlers.OnConnected != nil {
		c.handlers.OnConnected(c.ws)
	}
	return len(data)
}

func (c *Client) fail(s *tls.Session, err error) {
	select {
	case c.handshakeDone <- err:
	default:
	}
	if c.handlers.OnError != nil {
		c.handlers.OnError(nil, err)
	}
	s.Disconnect()
}

// Connect dials, TLS-handshakes, and completes the WebSocket upgrade
// handshake synchronously. cfg.ConnectTimeout bounds the TLS connect and,
// separately, the wait for the upgrade response; when it is unset the TLS
// client's own default applies to the first and 10s to the second.
func (c *Client) Connect() error {
	if err := c.tls.Connect(); err != nil {
		return err
	}
	// A synchronous tls.Client.Connect does not auto-start reads
	// (spec.md §4.4); the upgrade response and subsequent frames need
	// them flowing.
	c.tls.Receive()
	select {
	case err := <-c.handshakeDone:
		return err
	case <-time.After(c.connectTimeout):
		c.tls.Disconnect()
		return ErrHandshakeTimeout
	}
}

// ConnectAsync performs Connect in a background goroutine.
func (c *Client) ConnectAsync(done func(error)) {
	go func() {
		err := c.Connect()
		if done != nil {
			done(err)
		}
	}()
}

// Send frames and enqueues payload once the connection has upgraded.
func (c *Client) Send(opcode Opcode, payload []byte) error {
	if c.ws == nil {
		return ErrNotUpgraded
	}
	return c.ws.Send(opcode, payload)
}

// Close sends a close frame and disconnects, or, if the connection never
// upgraded, simply closes the underlying TLS client.
func (c *Client) Close(status uint16) error {
	if c.ws != nil {
		err := c.ws.Close(status)
		_ = c.tls.Close()
		return err
	}
	return c.tls.Close()
}

// Session returns the upgraded Session, or nil before Connect completes.
func (c *Client) Session() *Session { return c.ws }
