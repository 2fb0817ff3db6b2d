// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// NewTCPHandlers/NewTLSHandlers adapt an http.Session onto transport/tcp
// and transport/tls's own per-connection Handlers struct, so an
// http.Server is just a transport/tcp.Server (or transport/tls.Server)
// configured with one of these factories — spec.md §4.6's HTTP session and
// §4.9's HTTPS session share one implementation, only the transport
// substrate differs.

package http

import (
	"github.com/solidcore/netcore/transport/tcp"
	"github.com/solidcore/netcore/transport/tls"
)

// ConnectedHandlers lets the application react to a fresh http.Session
// being created, in addition to the request-level Handlers.
type ConnectedHandlers struct {
	Handlers
	OnConnected    func(s *Session)
	OnDisconnected func(s *Session, err error)
}

// NewTCPHandlers returns a tcp.ServerConfig.NewHandlers-compatible factory
// that layers a fresh http.Session over each accepted tcp.Session.
func NewTCPHandlers(h ConnectedHandlers, cache *FileCache) func() tcp.Handlers {
	return func() tcp.Handlers {
		var hs *Session
		return tcp.Handlers{
			OnConnected: func(s *tcp.Session) {
				hs = NewSession(s, h.Handlers, cache)
				s.UserData = hs
				if h.OnConnected != nil {
					h.OnConnected(hs)
				}
			},
			OnReceived: func(s *tcp.Session, data []byte) int {
				return hs.OnReceived(data)
			},
			OnDisconnected: func(s *tcp.Session, err error) {
				if h.OnDisconnected != nil {
					h.OnDisconnected(hs, err)
				}
			},
		}
	}
}

// NewTLSHandlers returns a tls.ServerConfig.NewHandlers-compatible factory.
// Request framing only begins after the TLS handshake completes.
func NewTLSHandlers(h ConnectedHandlers, cache *FileCache) func() tls.Handlers {
	return func() tls.Handlers {
		var hs *Session
		return tls.Handlers{
			OnHandshaked: func(s *tls.Session) {
				hs = NewSession(s, h.Handlers, cache)
				s.UserData = hs
				if h.OnConnected != nil {
					h.OnConnected(hs)
				}
			},
			OnReceived: func(s *tls.Session, data []byte) int {
				return hs.OnReceived(data)
			},
			OnDisconnected: func(s *tls.Session, err error) {
				if h.OnDisconnected != nil {
					h.OnDisconnected(hs, err)
				}
			},
		}
	}
}
