// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Client implements spec.md §4.6's "HTTP client": symmetric to Session, it
// feeds bytes into an httpmsg.Response parser and fires response handlers.
// Grounded on original_source/include/server/http/http_client.h's
// send-then-await-response shape.

package http

import (
	"github.com/solidcore/netcore/httpmsg"
	"github.com/solidcore/netcore/reactor"
	"github.com/solidcore/netcore/transport/tcp"
	"github.com/solidcore/netcore/transport/tls"
)

// Connector is the subset of transport/tcp.Client and transport/tls.Client
// a Client needs: the Transport send/disconnect surface plus connection
// lifecycle and the reactor backing it (used by FutureClient's timeout
// timer).
type Connector interface {
	Transport
	Connect() error
	ConnectAsync(done func(error))
	Receive()
	Close() error
	Reactor() *reactor.Reactor
}

// ClientHandlers is the struct-of-callbacks a Client invokes as a response
// streams in.
type ClientHandlers struct {
	// OnReceivedResponseHeader fires once the status line and headers have
	// been parsed, before the body (if any) has fully arrived.
	OnReceivedResponseHeader func(c *Client, resp *httpmsg.Response)
	// OnReceivedResponse fires once the full response (header and body) is
	// ready.
	OnReceivedResponse func(c *Client, resp *httpmsg.Response)
	// OnReceivedResponseError fires on a malformed response. A disconnect
	// in the middle of a response does not fire it.
	OnReceivedResponseError func(c *Client, resp *httpmsg.Response, message string)
}

// Client wraps a Connector (a tcp.Client or tls.Client) with response
// framing.
type Client struct {
	Conn     Connector
	Handlers ClientHandlers

	resp        *httpmsg.Response
	headerFired bool
}

// NewClient constructs a Client over an already-built Connector. Wire its
// OnReceived method into the underlying client's Handlers.OnReceived.
func NewClient(conn Connector, h ClientHandlers) *Client {
	return &Client{Conn: conn, Handlers: h, resp: httpmsg.NewResponse()}
}

// NewTCPClient builds a plain transport/tcp.Client pre-wired to feed an
// http.Client, ready for Connect/Send.
func NewTCPClient(cfg tcp.ClientConfig, h ClientHandlers) (*Client, error) {
	hc := &Client{Handlers: h, resp: httpmsg.NewResponse()}
	cfg.Handlers.OnReceived = func(s *tcp.Session, data []byte) int { return hc.OnReceived(data) }
	c, err := tcp.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	hc.Conn = c
	return hc, nil
}

// NewTLSClient builds a plain transport/tls.Client pre-wired to feed an
// http.Client, for HTTPS.
func NewTLSClient(cfg tls.ClientConfig, h ClientHandlers) (*Client, error) {
	hc := &Client{Handlers: h, resp: httpmsg.NewResponse()}
	cfg.Handlers.OnReceived = func(s *tls.Session, data []byte) int { return hc.OnReceived(data) }
	c, err := tls.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	hc.Conn = c
	return hc, nil
}

// OnReceived feeds data to the response parser and fires the header/ready
// handlers as the response progresses.
func (c *Client) OnReceived(data []byte) int {
	var err error
	switch c.resp.State() {
	case httpmsg.StatePendingBody:
		err = c.resp.ReceiveBody(data)
	default:
		err = c.resp.ReceiveHeader(data)
	}
	if err != nil {
		c.fail(err.Error())
		return len(data)
	}

	if !c.headerFired && (c.resp.State() == httpmsg.StatePendingBody || c.resp.State() == httpmsg.StateReady) {
		c.headerFired = true
		if c.Handlers.OnReceivedResponseHeader != nil {
			c.Handlers.OnReceivedResponseHeader(c, c.resp)
		}
	}
	if c.resp.State() == httpmsg.StateReady {
		resp := c.resp
		c.resp = httpmsg.NewResponse()
		c.headerFired = false
		if c.Handlers.OnReceivedResponse != nil {
			c.Handlers.OnReceivedResponse(c, resp)
		}
	}
	return len(data)
}

func (c *Client) fail(message string) {
	if c.Handlers.OnReceivedResponseError != nil {
		c.Handlers.OnReceivedResponseError(c, c.resp, message)
	}
	c.Conn.Disconnect()
}

// SendRequest serializes req and sends it asynchronously.
func (c *Client) SendRequest(req *httpmsg.Request) error {
	return c.Conn.Send(req.Bytes())
}

// Connect dials (and, for HTTPS, handshakes) synchronously, then starts
// reads itself: a synchronous transport connect never auto-starts reads
// (spec.md §4.3/§4.4), but an HTTP client always needs its response bytes
// flowing.
func (c *Client) Connect() error {
	if err := c.Conn.Connect(); err != nil {
		return err
	}
	c.Conn.Receive()
	return nil
}

// ConnectAsync dials in the background; the underlying Connector
// auto-starts reads itself once the async connect succeeds.
func (c *Client) ConnectAsync(done func(error)) { c.Conn.ConnectAsync(done) }

// Close disconnects and releases the underlying client's resources.
func (c *Client) Close() error { return c.Conn.Close() }
