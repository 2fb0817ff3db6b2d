// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package tls implements the TLS server, session, and client of spec.md
// §4.4 on top of crypto/tls and the reactor/conn packages.
package tls
