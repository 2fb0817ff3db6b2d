// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Functional-options configuration for tcp.Server and tcp.Client, following
// the teacher's client.ClientConfig/ClientOption pattern (client/client.go)
// generalized to cover both server and client sides of spec.md §4.3.

package tcp

import (
	"time"

	"github.com/solidcore/netcore/netutil"
	"github.com/solidcore/netcore/reactor"
)

// Handlers is the struct-of-callbacks every Session and Client invokes on
// its bound strand (spec.md §4.3's CRTP session/client hooks, resolved into
// idiomatic Go as plain optional func fields instead of a type parameter).
// Any field left nil is simply skipped.
type Handlers struct {
	// OnConnected fires once a session/client reaches the Connected state.
	OnConnected func(s *Session)
	// OnDisconnected fires exactly once per connection epoch, regardless of
	// which side or what reason triggered the disconnect.
	OnDisconnected func(s *Session, err error)
	// OnReceived is handed the endpoint's receive buffer and must return how
	// many leading bytes it consumed; the remainder stays buffered for the
	// next delivery (spec.md §4.3 "partial consumption").
	OnReceived func(s *Session, data []byte) (consumed int)
	// OnEmpty fires once the send queue's flush buffer has been completely
	// written and no further user data is pending (spec.md §4.3's
	// drain-complete signal).
	OnEmpty func(s *Session)
	// OnError reports a non-benign I/O error (spec.md §7); benign shutdown
	// errors are swallowed before reaching here.
	OnError func(s *Session, err error)
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr    string
	Workers int // worker loop count handed to the reactor; 0 = runtime.NumCPU()

	SocketOptions   netutil.SocketOptions
	RecvBufferLimit int
	SendBufferLimit int

	// NewHandlers is invoked once per accepted connection so each session
	// can carry independent closure state; it must not be nil.
	NewHandlers func() Handlers
}

// ServerOption mutates a ServerConfig at construction time.
type ServerOption func(*ServerConfig)

// WithServerSocketOptions overrides the default socket options.
func WithServerSocketOptions(o netutil.SocketOptions) ServerOption {
	return func(c *ServerConfig) { c.SocketOptions = o }
}

// WithServerBufferLimits sets the per-session backpressure limits (0 = unlimited).
func WithServerBufferLimits(recv, send int) ServerOption {
	return func(c *ServerConfig) {
		c.RecvBufferLimit = recv
		c.SendBufferLimit = send
	}
}

// WithServerWorkers overrides the reactor's worker-loop count.
func WithServerWorkers(n int) ServerOption {
	return func(c *ServerConfig) { c.Workers = n }
}

// NewServerConfig builds a ServerConfig with spec.md §4.3 defaults.
func NewServerConfig(addr string, newHandlers func() Handlers, opts ...ServerOption) ServerConfig {
	cfg := ServerConfig{
		Addr:            addr,
		SocketOptions:   netutil.DefaultSocketOptions(),
		RecvBufferLimit: 0,
		SendBufferLimit: 0,
		NewHandlers:     newHandlers,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// ClientConfig configures a Client, mirroring the teacher's ClientConfig
// (Addr, timeouts, reconnect policy).
type ClientConfig struct {
	Addr string

	SocketOptions   netutil.SocketOptions
	RecvBufferLimit int
	SendBufferLimit int

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	ReconnectMax      int
	ReconnectInterval time.Duration

	Handlers Handlers
}

// ClientOption mutates a ClientConfig at construction time.
type ClientOption func(*ClientConfig)

// WithClientSocketOptions overrides the default socket options.
func WithClientSocketOptions(o netutil.SocketOptions) ClientOption {
	return func(c *ClientConfig) { c.SocketOptions = o }
}

// WithClientBufferLimits sets the client's backpressure limits (0 = unlimited).
func WithClientBufferLimits(recv, send int) ClientOption {
	return func(c *ClientConfig) {
		c.RecvBufferLimit = recv
		c.SendBufferLimit = send
	}
}

// WithTimeouts sets the connect/read/write deadlines applied to the
// blocking Connect/Receive/Send variants (0 = no deadline).
func WithTimeouts(connect, read, write time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.ConnectTimeout = connect
		c.ReadTimeout = read
		c.WriteTimeout = write
	}
}

// WithReconnectPolicy configures ReconnectAsync's retry budget.
func WithReconnectPolicy(maxAttempts int, interval time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.ReconnectMax = maxAttempts
		c.ReconnectInterval = interval
	}
}

// NewClientConfig builds a ClientConfig with spec.md §4.3 defaults.
func NewClientConfig(addr string, handlers Handlers, opts ...ClientOption) ClientConfig {
	cfg := ClientConfig{
		Addr:              addr,
		SocketOptions:     netutil.DefaultSocketOptions(),
		ConnectTimeout:    10 * time.Second,
		ReconnectMax:      3,
		ReconnectInterval: time.Second,
		Handlers:          handlers,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// newReactorFor spawns and starts a private reactor sized per cfg.Workers,
// used by both Server and Client constructors that do not share one with
// an outer application.
func newReactorFor(workers int) (*reactor.Reactor, error) {
	r := reactor.NewReactor()
	if err := r.Start(workers, false); err != nil {
		return nil, err
	}
	return r, nil
}
