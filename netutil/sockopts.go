// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package netutil applies the per-endpoint socket configuration surface of
// spec.md §6 (keep_alive, no_delay, reuse_address, reuse_port,
// receive/send buffer sizes, UDP multicast group membership) on top of
// Go's net package. The portable knobs (TCP_NODELAY, SO_KEEPALIVE,
// SO_RCVBUF/SO_SNDBUF) are exposed directly by *net.TCPConn/*net.UDPConn and
// need no syscall access; SO_REUSEADDR/SO_REUSEPORT at listen time and
// dynamic multicast group join/leave do not have a portable net API, so
// those are grounded on the teacher's own golang.org/x/sys/unix usage
// (internal/transport/transport_linux.go, reactor/reactor_linux.go) via
// platform-specific files in this package.
package netutil

import (
	"errors"
	"net"
	"syscall"
	"time"
)

// ErrNotSupported is returned by platform-specific operations this package
// cannot implement on the current GOOS (e.g. SO_REUSEPORT on platforms that
// do not expose it, or dynamic multicast join/leave where only Go's
// listen-time multicast join is available).
var ErrNotSupported = errors.New("netutil: not supported on this platform")

// SocketOptions mirrors spec.md §6's per-endpoint configuration surface.
type SocketOptions struct {
	KeepAlive         bool
	KeepAlivePeriod   time.Duration // 0 means the OS default
	NoDelay           bool
	ReuseAddress      bool
	ReusePort         bool
	ReceiveBufferSize int // 0 means leave the OS default
	SendBufferSize    int // 0 means leave the OS default
}

// DefaultSocketOptions matches the teacher's observed defaults (Nagle off,
// keep-alive on) — see client/client.go and transport/tcp/listener.go, which
// both disable Nagle's algorithm unconditionally for low-latency small
// writes.
func DefaultSocketOptions() SocketOptions {
	return SocketOptions{
		KeepAlive: true,
		NoDelay:   true,
	}
}

// ApplyTCP applies the portable subset of opts to an established TCP
// connection (accepted session or dialed client).
func ApplyTCP(conn *net.TCPConn, opts SocketOptions) error {
	if err := conn.SetNoDelay(opts.NoDelay); err != nil {
		return err
	}
	if err := conn.SetKeepAlive(opts.KeepAlive); err != nil {
		return err
	}
	if opts.KeepAlive && opts.KeepAlivePeriod > 0 {
		if err := conn.SetKeepAlivePeriod(opts.KeepAlivePeriod); err != nil {
			return err
		}
	}
	if opts.ReceiveBufferSize > 0 {
		if err := conn.SetReadBuffer(opts.ReceiveBufferSize); err != nil {
			return err
		}
	}
	if opts.SendBufferSize > 0 {
		if err := conn.SetWriteBuffer(opts.SendBufferSize); err != nil {
			return err
		}
	}
	return nil
}

// ApplyUDP applies the portable subset of opts to a UDP socket.
func ApplyUDP(conn *net.UDPConn, opts SocketOptions) error {
	if opts.ReceiveBufferSize > 0 {
		if err := conn.SetReadBuffer(opts.ReceiveBufferSize); err != nil {
			return err
		}
	}
	if opts.SendBufferSize > 0 {
		if err := conn.SetWriteBuffer(opts.SendBufferSize); err != nil {
			return err
		}
	}
	return nil
}

// ListenConfig builds a net.ListenConfig whose Control hook applies
// ReuseAddress/ReusePort before bind, via the platform-specific
// setReuseAddrPort in this package.
func ListenConfig(opts SocketOptions) net.ListenConfig {
	if !opts.ReuseAddress && !opts.ReusePort {
		return net.ListenConfig{}
	}
	return net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				ctrlErr = setReuseAddrPort(fd, opts.ReuseAddress, opts.ReusePort)
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}
}
