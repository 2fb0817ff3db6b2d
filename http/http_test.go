// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package http

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/solidcore/netcore/httpmsg"
	"github.com/solidcore/netcore/reactor"
)

// fakeTransport is a minimal Transport for exercising Session.OnReceived
// without a real socket.
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

// fakeConnector is a minimal Connector for FutureClient/Client tests: it
// never actually dials, it just records the callback ConnectAsync was
// given so the test can fire it manually.
type fakeConnector struct {
	*fakeTransport
	r        *reactor.Reactor
	connDone func(error)
}

func newFakeConnector(ft *fakeTransport) *fakeConnector {
	r := reactor.NewReactor()
	if err := r.Start(1, false); err != nil {
		panic(err)
	}
	return &fakeConnector{fakeTransport: ft, r: r}
}

func (f *fakeConnector) Connect() error                { return nil }
func (f *fakeConnector) ConnectAsync(done func(error)) { f.connDone = done }
func (f *fakeConnector) Receive()                      {}
func (f *fakeConnector) Close() error                  { return f.r.Stop() }
func (f *fakeConnector) Reactor() *reactor.Reactor     { return f.r }
func (f *fakeConnector) fireConnected(err error) {
	if f.connDone != nil {
		f.connDone(err)
	}
}

func TestSessionDispatchesCompletedRequest(t *testing.T) {
	ft := &fakeTransport{}
	var got *httpmsg.Request
	s := NewSession(ft, Handlers{
		OnReceivedRequest: func(s *Session, req *httpmsg.Request) { got = req },
	}, nil)

	wire := []byte("GET /widgets HTTP/1.1\r\nHost: example.com\r\n\r\n")
	s.OnReceived(wire)

	if got == nil {
		t.Fatal("expected OnReceivedRequest to fire")
	}
	if got.Method != "GET" || got.URL != "/widgets" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestSessionServesFromFileCache(t *testing.T) {
	ft := &fakeTransport{}
	cache := NewFileCache()
	cache.Insert("/hello.txt", httpmsg.NewResponse().MakeCachedFileResponse([]byte("hi"), "text/plain", time.Minute), time.Minute)

	called := false
	s := NewSession(ft, Handlers{
		OnReceivedRequest: func(s *Session, req *httpmsg.Request) { called = true },
	}, cache)

	wire := []byte("GET /hello.txt?x=1 HTTP/1.1\r\n\r\n")
	s.OnReceived(wire)

	if called {
		t.Fatal("expected cache hit to bypass OnReceivedRequest")
	}
	if len(ft.sent) != 1 {
		t.Fatalf("expected one cached response sent, got %d", len(ft.sent))
	}
}

func TestSessionMalformedRequestDisconnects(t *testing.T) {
	ft := &fakeTransport{}
	var message string
	s := NewSession(ft, Handlers{
		OnReceivedRequestError: func(s *Session, req *httpmsg.Request, msg string) { message = msg },
	}, nil)

	// Content-Length that isn't a number triggers a parser error.
	wire := []byte("POST /x HTTP/1.1\r\nContent-Length: nope\r\n\r\n")
	s.OnReceived(wire)

	if message == "" {
		t.Fatal("expected OnReceivedRequestError to fire")
	}
	if ft.disconnects != 1 {
		t.Fatalf("expected exactly one disconnect, got %d", ft.disconnects)
	}
}

func TestClientDispatchesResponse(t *testing.T) {
	ft := &fakeTransport{}
	conn := newFakeConnector(ft)
	var got *httpmsg.Response
	c := NewClient(conn, ClientHandlers{
		OnReceivedResponse: func(c *Client, resp *httpmsg.Response) { got = resp },
	})

	wire := []byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nhi")
	c.OnReceived(wire)

	if got == nil {
		t.Fatal("expected OnReceivedResponse to fire")
	}
	if string(got.Body) != "hi" {
		t.Fatalf("expected body %q, got %q", "hi", got.Body)
	}
}

func TestFutureClientResolvesOnResponse(t *testing.T) {
	ft := &fakeTransport{}
	conn := newFakeConnector(ft)
	c := NewClient(conn, ClientHandlers{})
	fc := NewFutureClient(c)

	fut := fc.SendRequest(httpmsg.NewRequest().MakeGetRequest("/"), time.Second)

	// Simulate the connect callback firing and the server replying.
	conn.fireConnected(nil)
	c.OnReceived([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))

	res := fut.Wait()
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Response.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", res.Response.StatusCode)
	}
}

func TestFutureClientRejectsSecondInFlightRequest(t *testing.T) {
	ft := &fakeTransport{}
	conn := newFakeConnector(ft)
	c := NewClient(conn, ClientHandlers{})
	fc := NewFutureClient(c)

	_ = fc.SendRequest(httpmsg.NewRequest().MakeGetRequest("/"), time.Second)
	second := fc.SendRequest(httpmsg.NewRequest().MakeGetRequest("/"), time.Second)

	res := second.Wait()
	if !errors.Is(res.Err, ErrRequestInFlight) {
		t.Fatalf("expected ErrRequestInFlight, got %v", res.Err)
	}
}

func TestFileCacheExpiresLazily(t *testing.T) {
	cache := NewFileCache()
	cache.Insert("/x", httpmsg.NewResponse().MakeOKResponse(200), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, hit := cache.Find("/x"); hit {
		t.Fatal("expected expired entry to be a miss")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected lazy eviction to remove the entry, got len=%d", cache.Len())
	}
}
