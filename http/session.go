// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Session implements spec.md §4.6's "HTTP session": it feeds bytes handed
// to it by the underlying transport.Session's OnReceived hook into an
// httpmsg.Request parser, consults the static file cache for GET requests,
// and fires the application's request handlers once a request is ready.
// Grounded on original_source/include/server/http/https_session.h's
// onReceived-drives-the-parser shape, retargeted onto this module's own
// httpmsg package instead of the original's std::multimap cache.

package http

import (
	"net"
	"strings"

	"github.com/solidcore/netcore/httpmsg"
)

// Transport is the subset of transport/tcp.Session and transport/tls.Session
// a Session needs: asynchronous send, idempotent disconnect, and the peer
// address. Both satisfy this interface without modification.
type Transport interface {
	Send(p []byte) error
	Disconnect()
	RemoteAddr() net.Addr
}

// Handlers is the struct-of-callbacks an http.Session invokes on whatever
// strand its underlying transport session already serializes on.
type Handlers struct {
	// OnReceivedRequest fires once a full request has been parsed and, for
	// GET, the file cache had no hit.
	OnReceivedRequest func(s *Session, req *httpmsg.Request)
	// OnReceivedRequestError fires on a malformed request. A disconnect in
	// the middle of a request's header or body does not fire it.
	OnReceivedRequestError func(s *Session, req *httpmsg.Request, message string)
	// OnReceivedCachedRequest fires instead of OnReceivedRequest when a GET
	// hits the file cache; nil means "send the cached response verbatim",
	// spec.md §4.6's default.
	OnReceivedCachedRequest func(s *Session, resp *httpmsg.Response)
}

// Session wraps one accepted connection's Transport with request framing.
type Session struct {
	Transport Transport
	Handlers  Handlers
	Cache     *FileCache

	req *httpmsg.Request

	// UserData lets the application stash arbitrary per-session state.
	UserData any
}

// NewSession constructs a Session over an already-accepted Transport. Wire
// its OnReceived method into the underlying transport's OnReceived hook
// (see NewTCPHandlers/NewTLSHandlers for ready-made factories).
func NewSession(t Transport, h Handlers, cache *FileCache) *Session {
	return &Session{
		Transport: t,
		Handlers:  h,
		Cache:     cache,
		req:       httpmsg.NewRequest(),
	}
}

// OnReceived feeds data to the request parser and, once a request is
// ready, dispatches it. It always reports the full length consumed: the
// parser owns its own internal buffering (httpmsg's cache), so nothing is
// left for the transport session's own receive buffer to hold onto.
func (s *Session) OnReceived(data []byte) int {
	var err error
	switch s.req.State() {
	case httpmsg.StatePendingBody:
		err = s.req.ReceiveBody(data)
	default: // StatePendingHeader (zero value) or a fresh request
		err = s.req.ReceiveHeader(data)
	}
	if err != nil {
		s.fail(err.Error())
		return len(data)
	}
	if s.req.State() == httpmsg.StateReady {
		s.handleReady()
	}
	return len(data)
}

// handleReady dispatches the just-completed request: GET requests first
// consult the file cache by URL path stripped of query, per spec.md §4.6.
func (s *Session) handleReady() {
	req := s.req
	s.req = httpmsg.NewRequest() // reset before any handler can re-enter

	if req.Method == "GET" && s.Cache != nil {
		if resp, hit := s.Cache.Find(stripQuery(req.URL)); hit {
			if s.Handlers.OnReceivedCachedRequest != nil {
				s.Handlers.OnReceivedCachedRequest(s, resp)
			} else {
				_ = s.Transport.Send(resp.Bytes())
			}
			return
		}
	}
	if s.Handlers.OnReceivedRequest != nil {
		s.Handlers.OnReceivedRequest(s, req)
	}
}

func (s *Session) fail(message string) {
	if s.Handlers.OnReceivedRequestError != nil {
		s.Handlers.OnReceivedRequestError(s, s.req, message)
	}
	s.Transport.Disconnect()
}

// Send enqueues resp for asynchronous delivery.
func (s *Session) Send(resp *httpmsg.Response) error {
	return s.Transport.Send(resp.Bytes())
}

// RemoteAddr returns the peer address of the underlying transport.
func (s *Session) RemoteAddr() net.Addr { return s.Transport.RemoteAddr() }

// Disconnect closes the underlying transport.
func (s *Session) Disconnect() { s.Transport.Disconnect() }

// stripQuery removes a "?..." suffix from a request URL, matching the path
// the static file cache's keys are built from (spec.md §4.6).
func stripQuery(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
