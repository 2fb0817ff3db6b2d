// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package websocket

import (
	"net"
	"testing"

	"github.com/solidcore/netcore/httpmsg"
)

// fakeTransport is a minimal http.Transport for exercising Session without
// a real socket.
type fakeTransport struct {
	sent        [][]byte
	disconnects int
}

func (f *fakeTransport) Send(p []byte) error {
	cp := append([]byte(nil), p...)
	f.sent = append(f.sent, cp)
	return nil
}
func (f *fakeTransport) Disconnect()          { f.disconnects++ }
func (f *fakeTransport) RemoteAddr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1} }

func TestFrameRoundTripUnmasked(t *testing.T) {
	wire := EncodeFrame(OpText, []byte("hello"), false)

	dec := NewDecoder()
	f, err := dec.Feed(wire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil {
		t.Fatal("expected a decoded frame")
	}
	if f.Opcode != OpText || string(f.Payload) != "hello" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestFrameRoundTripMasked(t *testing.T) {
	wire := EncodeFrame(OpBinary, []byte("masked payload"), true)

	dec := NewDecoder()
	f, err := dec.Feed(wire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil || !f.Masked || string(f.Payload) != "masked payload" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestFrameDecoderIncrementalFeed(t *testing.T) {
	wire := EncodeFrame(OpText, []byte("split across chunks"), false)
	dec := NewDecoder()

	var got *Frame
	for i := 0; i < len(wire); i++ {
		f, err := dec.Feed(wire[i : i+1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f != nil {
			got = f
		}
	}
	if got == nil || string(got.Payload) != "split across chunks" {
		t.Fatalf("unexpected frame: %+v", got)
	}
}

func TestFrameTooLargeRejected(t *testing.T) {
	dec := NewDecoder()
	hdr := []byte{0x82, 127, 0, 0, 0, 1, 0, 0, 0, 0} // binary, 64-bit length = 0x100000000
	_, err := dec.Feed(hdr)
	if err != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestEncodeCloseCarriesStatus(t *testing.T) {
	wire := EncodeClose(1001, false)
	dec := NewDecoder()
	f, err := dec.Feed(wire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Opcode != OpClose || len(f.Payload) != 2 || uint16(f.Payload[0])<<8|uint16(f.Payload[1]) != 1001 {
		t.Fatalf("unexpected close frame: %+v", f)
	}
}

func TestHandshakeAcceptValue(t *testing.T) {
	// RFC 6455 §1.3 worked example.
	got := AcceptValue("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("AcceptValue = %q, want %q", got, want)
	}
}

func TestBuildAndVerifyUpgradeRoundTrip(t *testing.T) {
	req, key := BuildUpgradeRequest("/chat", "", "")
	if err := ValidateUpgradeRequest(req); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	resp := BuildUpgradeResponse(key)
	if err := VerifyUpgradeResponse(resp, key); err != nil {
		t.Fatalf("unexpected verify error: %v", err)
	}
}

func TestVerifyUpgradeResponseRejectsWrongAccept(t *testing.T) {
	resp := BuildUpgradeResponse("some-other-key")
	if err := VerifyUpgradeResponse(resp, "the-real-key"); err != ErrAcceptMismatch {
		t.Fatalf("expected ErrAcceptMismatch, got %v", err)
	}
}

func TestValidateUpgradeRequestRejectsMissingHeaders(t *testing.T) {
	req := httpmsg.NewRequest().MakeGetRequest("/chat")
	if err := ValidateUpgradeRequest(req); err != ErrNotUpgradeRequest {
		t.Fatalf("expected ErrNotUpgradeRequest, got %v", err)
	}
}

func TestSessionPingTriggersAutoPong(t *testing.T) {
	ft := &fakeTransport{}
	s := newSession(ft, Handlers{}, false)

	s.onWSBytes(EncodeFrame(OpPing, []byte("ping"), false))

	if len(ft.sent) != 1 {
		t.Fatalf("expected one auto-pong sent, got %d", len(ft.sent))
	}
	dec := NewDecoder()
	f, _ := dec.Feed(ft.sent[0])
	if f.Opcode != OpPong || string(f.Payload) != "ping" {
		t.Fatalf("unexpected pong frame: %+v", f)
	}
}

func TestSessionCloseTriggersReplyAndDisconnect(t *testing.T) {
	ft := &fakeTransport{}
	var gotStatus uint16
	s := newSession(ft, Handlers{
		OnClose: func(s *Session, status uint16) { gotStatus = status },
	}, false)

	s.onWSBytes(EncodeClose(1001, false))

	if gotStatus != 1001 {
		t.Fatalf("expected OnClose status 1001, got %d", gotStatus)
	}
	if len(ft.sent) != 1 {
		t.Fatalf("expected one reply close frame, got %d", len(ft.sent))
	}
	if ft.disconnects != 1 {
		t.Fatalf("expected exactly one disconnect, got %d", ft.disconnects)
	}
}

func TestSessionDispatchesTextFrame(t *testing.T) {
	ft := &fakeTransport{}
	var gotOpcode Opcode
	var gotData []byte
	s := newSession(ft, Handlers{
		OnReceived: func(s *Session, opcode Opcode, data []byte) { gotOpcode = opcode; gotData = data },
	}, false)

	s.onWSBytes(EncodeFrame(OpText, []byte("hi there"), false))

	if gotOpcode != OpText || string(gotData) != "hi there" {
		t.Fatalf("unexpected dispatch: opcode=%v data=%q", gotOpcode, gotData)
	}
}

func TestSessionSendMasksForClientSide(t *testing.T) {
	ft := &fakeTransport{}
	s := newSession(ft, Handlers{}, true)

	if err := s.Send(OpText, []byte("outbound")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ft.sent) != 1 {
		t.Fatalf("expected one frame sent, got %d", len(ft.sent))
	}
	// A masked frame's second header byte has the high bit set.
	if ft.sent[0][1]&0x80 == 0 {
		t.Fatal("expected client-side Send to mask the frame")
	}
}
