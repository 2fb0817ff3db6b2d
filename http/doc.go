// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package http layers request/response framing (httpmsg) over a raw byte
// stream (transport/tcp or transport/tls), implementing spec.md §4.6's
// HTTP/HTTPS session and client contracts on top of either substrate.
package http
