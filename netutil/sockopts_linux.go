//go:build linux

// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Grounded on the teacher's internal/transport/transport_linux.go, which
// already calls unix.SetsockoptInt directly on a raw fd for TCP_NODELAY;
// this file applies the same pattern to SO_REUSEADDR/SO_REUSEPORT and to
// multicast group membership.

package netutil

import (
	"net"

	"golang.org/x/sys/unix"
)

func setReuseAddrPort(fd uintptr, reuseAddr, reusePort bool) error {
	ifd := int(fd)
	if reuseAddr {
		if err := unix.SetsockoptInt(ifd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return err
		}
	}
	if reusePort {
		if err := unix.SetsockoptInt(ifd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return err
		}
	}
	return nil
}

// JoinMulticastGroup adds conn's socket to the multicast group at addr
// (IPv4 via IP_ADD_MEMBERSHIP, IPv6 via IPV6_JOIN_GROUP).
func JoinMulticastGroup(conn *net.UDPConn, addr *net.UDPAddr) error {
	return withRawConn(conn, func(fd int) error {
		if ip4 := addr.IP.To4(); ip4 != nil {
			mreq := &unix.IPMreq{}
			copy(mreq.Multiaddr[:], ip4)
			return unix.SetsockoptIPMreq(fd, unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq)
		}
		mreq := &unix.IPv6Mreq{}
		copy(mreq.Multiaddr[:], addr.IP.To16())
		return unix.SetsockoptIPv6Mreq(fd, unix.IPPROTO_IPV6, unix.IPV6_JOIN_GROUP, mreq)
	})
}

// LeaveMulticastGroup removes conn's socket from the multicast group at addr.
func LeaveMulticastGroup(conn *net.UDPConn, addr *net.UDPAddr) error {
	return withRawConn(conn, func(fd int) error {
		if ip4 := addr.IP.To4(); ip4 != nil {
			mreq := &unix.IPMreq{}
			copy(mreq.Multiaddr[:], ip4)
			return unix.SetsockoptIPMreq(fd, unix.IPPROTO_IP, unix.IP_DROP_MEMBERSHIP, mreq)
		}
		mreq := &unix.IPv6Mreq{}
		copy(mreq.Multiaddr[:], addr.IP.To16())
		return unix.SetsockoptIPv6Mreq(fd, unix.IPPROTO_IPV6, unix.IPV6_LEAVE_GROUP, mreq)
	})
}

func withRawConn(conn *net.UDPConn, fn func(fd int) error) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var innerErr error
	err = raw.Control(func(fd uintptr) {
		innerErr = fn(int(fd))
	})
	if err != nil {
		return err
	}
	return innerErr
}
