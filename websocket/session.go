// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Session is one upgraded WebSocket connection: frames in, frames out,
// layered directly on the same http.Transport interface transport/tls
// sessions satisfy. Grounded on the teacher's protocol/connection.go
// WSConnection (ping/pong/close dispatch, byte/frame counters) with the
// channel-based inbox/outbox replaced by this module's direct
// strand-serialized dispatch (the session's owning transport session
// already provides the serialization spec.md §5 requires).

package websocket

import (
	"encoding/binary"

	"github.com/solidcore/netcore/http"
)

// Handlers is the struct-of-callbacks a Session invokes as frames arrive.
type Handlers struct {
	// OnConnected fires once the upgrade handshake completes.
	OnConnected func(s *Session)
	// OnReceived fires for text/binary frames.
	OnReceived func(s *Session, opcode Opcode, data []byte)
	// OnPing fires for a ping frame, before the automatic pong is queued
	// (spec.md §4.7 "ping → on_ws_ping → auto pong").
	OnPing func(s *Session, data []byte)
	// OnPong fires for a pong frame.
	OnPong func(s *Session, data []byte)
	// OnClose fires for a close frame, before the automatic close(1000)
	// reply and disconnect (spec.md §4.7 "close → on_ws_close → reply
	// close(1000)").
	OnClose func(s *Session, status uint16)
	// OnError fires on a framing violation; the session is disconnected
	// immediately afterward. s is nil if the error occurs before a Session
	// could be constructed (a failed handshake).
	OnError func(s *Session, err error)
	// OnDisconnected fires once the underlying transport disconnects.
	OnDisconnected func(s *Session, err error)
}

// Session wraps one upgraded connection's Transport with frame framing.
type Session struct {
	Transport http.Transport
	Handlers  Handlers
	masked    bool // true: this side must mask outgoing frames (client)

	dec *Decoder

	// UserData lets the application stash arbitrary per-session state.
	UserData any

	bytesReceived  int64
	bytesSent      int64
	framesReceived int64
	framesSent     int64
}

func newSession(t http.Transport, h Handlers, masked bool) *Session {
	return &Session{Transport: t, Handlers: h, masked: masked, dec: NewDecoder()}
}

// onWSBytes feeds newly received bytes to the frame decoder and dispatches
// every fully decoded frame. Always reports full consumption: Decoder owns
// its own buffering exactly as httpmsg's parsers do.
func (s *Session) onWSBytes(data []byte) int {
	s.bytesReceived += int64(len(data))
	frame, err := s.dec.Feed(data)
	for {
		if err != nil {
			if s.Handlers.OnError != nil {
				s.Handlers.OnError(s, err)
			}
			s.Transport.Disconnect()
			return len(data)
		}
		if frame == nil {
			return len(data)
		}
		s.framesReceived++
		s.dispatch(frame)
		frame, err = s.dec.Feed(nil)
	}
}

func (s *Session) dispatch(f *Frame) {
	switch f.Opcode {
	case OpPing:
		if s.Handlers.OnPing != nil {
			s.Handlers.OnPing(s, f.Payload)
		}
		_ = s.Send(OpPong, f.Payload)
	case OpPong:
		if s.Handlers.OnPong != nil {
			s.Handlers.OnPong(s, f.Payload)
		}
	case OpClose:
		status := uint16(1000)
		if len(f.Payload) >= 2 {
			status = binary.BigEndian.Uint16(f.Payload[:2])
		}
		if s.Handlers.OnClose != nil {
			s.Handlers.OnClose(s, status)
		}
		_ = s.Close(1000)
	default: // text, binary; continuation frames are out of scope (spec.md §4.7)
		if s.Handlers.OnReceived != nil {
			s.Handlers.OnReceived(s, f.Opcode, f.Payload)
		}
	}
}

// Send frames and enqueues payload as a single opcode frame.
func (s *Session) Send(opcode Opcode, payload []byte) error {
	wire := EncodeFrame(opcode, payload, s.masked)
	s.framesSent++
	s.bytesSent += int64(len(wire))
	return s.Transport.Send(wire)
}

// Close sends a close frame carrying status and disconnects the
// underlying transport, per spec.md §4.7 "close(status) sends a close
// frame and initiates TLS/TCP disconnect".
func (s *Session) Close(status uint16) error {
	err := s.Transport.Send(EncodeClose(status, s.masked))
	s.Transport.Disconnect()
	return err
}

// RemoteAddr returns the peer address of the underlying transport.
func (s *Session) RemoteAddr() any { return s.Transport.RemoteAddr() }

// Stats returns the session's frame/byte counters.
func (s *Session) Stats() (framesReceived, framesSent, bytesReceived, bytesSent int64) {
	return s.framesReceived, s.framesSent, s.bytesReceived, s.bytesSent
}
