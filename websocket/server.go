// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Server-side upgrade: a per-connection handler that starts in HTTP mode
// (delegating to http.Session) and switches to WS mode once a request
// validates as an upgrade, retargeting the teacher's protocol/upgrader.go
// (a net/http.Handler that hijacks the connection) onto this module's
// byte-routing model — there's no connection to hijack here, so "switching
// modes" just means redirecting which parser the next OnReceived call feeds.

package websocket

import (
	"github.com/solidcore/netcore/http"
	"github.com/solidcore/netcore/httpmsg"
	"github.com/solidcore/netcore/transport/tls"
)

// ServerHandlers composes the plain-HTTP fallback handlers with the
// WebSocket session handlers a TLS server invokes once a connection
// upgrades, per spec.md §4.7 "Non-matching requests fall through to plain
// HTTP".
type ServerHandlers struct {
	HTTP       http.Handlers
	WS         Handlers
	OnUpgraded func(ws *Session)
}

// NewTLSHandlers returns a tls.ServerConfig.NewHandlers-compatible factory
// implementing the mode switch: each connection starts parsing HTTP
// requests; the first one that validates as a WebSocket upgrade gets a 101
// response and the connection's OnReceived is redirected to frame decoding
// for the rest of its life. A connection that never upgrades behaves as a
// plain HTTP connection throughout.
func NewTLSHandlers(h ServerHandlers, cache *http.FileCache) func() tls.Handlers {
	return func() tls.Handlers {
		var hs *http.Session
		var ws *Session

		httpHandlers := h.HTTP
		appOnReceivedRequest := httpHandlers.OnReceivedRequest
		httpHandlers.OnReceivedRequest = func(s *http.Session, req *httpmsg.Request) {
			if !IsUpgradeRequest(req) {
				if appOnReceivedRequest != nil {
					appOnReceivedRequest(s, req)
				}
				return
			}
			if err := ValidateUpgradeRequest(req); err != nil {
				_ = s.Send(httpmsg.NewResponse().MakeErrorResponse(err.Error(), 400))
				s.Disconnect()
				return
			}
			key, _ := req.Headers.Get("Sec-WebSocket-Key")
			if err := s.Send(BuildUpgradeResponse(key)); err != nil {
				s.Disconnect()
				return
			}
			ws = newSession(s.Transport, h.WS, false)
			if h.OnUpgraded != nil {
				h.OnUpgraded(ws)
			}
			if h.WS.OnConnected != nil {
				h.WS.OnConnected(ws)
			}
		}

		return tls.Handlers{
			OnHandshaked: func(s *tls.Session) {
				hs = http.NewSession(s, httpHandlers, cache)
				s.UserData = hs
			},
			OnReceived: func(s *tls.Session, data []byte) int {
				if ws != nil {
					return ws.onWSBytes(data)
				}
				return hs.OnReceived(data)
			},
			OnDisconnected: func(s *tls.Session, err error) {
				if ws != nil && h.WS.OnDisconnected != nil {
					h.WS.OnDisconnected(ws, err)
				}
			},
		}
	}
}

// Server wraps a transport/tls.Server with frame-aware broadcast
// operations, per spec.md §4.7 "Multicast"/"CloseAll".
type Server struct {
	tls *tls.Server
}

// NewServer constructs a Server over an already-built transport/tls.Server
// configured with NewTLSHandlers.
func NewServer(s *tls.Server) *Server { return &Server{tls: s} }

// Start begins accepting connections.
func (srv *Server) Start() error { return srv.tls.Start() }

// Stop stops the server and disconnects every live session.
func (srv *Server) Stop() error { return srv.tls.Stop() }

// Multicast encodes payload as a single unmasked frame and enqueues it for
// every handshaked TLS session (including ones that haven't upgraded yet,
// matching the underlying transport's own Multicast semantics).
func (srv *Server) Multicast(opcode Opcode, payload []byte) {
	srv.tls.Multicast(EncodeFrame(opcode, payload, false))
}

// CloseAll sends a close frame carrying status to every live session and
// disconnects them all.
func (srv *Server) CloseAll(status uint16) {
	srv.tls.Multicast(EncodeClose(status, false))
	srv.tls.DisconnectAll()
}
