// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package tcp implements the TCP server, session, and client of spec.md
// §4.3 on top of the reactor and conn packages.
package tcp
