// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package udp implements the UDP server and client of spec.md §4.5 on top
// of net.UDPConn and the reactor package.
package udp
