//go:build !linux && !windows

// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package netutil

import "net"

func setReuseAddrPort(fd uintptr, reuseAddr, reusePort bool) error {
	return ErrNotSupported
}

// JoinMulticastGroup is not implemented on this platform.
func JoinMulticastGroup(conn *net.UDPConn, addr *net.UDPAddr) error {
	return ErrNotSupported
}

// LeaveMulticastGroup is not implemented on this platform.
func LeaveMulticastGroup(conn *net.UDPConn, addr *net.UDPAddr) error {
	return ErrNotSupported
}
