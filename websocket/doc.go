// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package websocket implements the RFC 6455 frame codec and upgrade
// handshake of spec.md §4.7, layered on the HTTPS client/session
// (transport/tls + http) rather than plain HTTP: §4.7 is WSS-only.
package websocket
