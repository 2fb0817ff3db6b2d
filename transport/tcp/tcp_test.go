package tcp

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

func TestServerClientEcho(t *testing.T) {
	var mu sync.Mutex
	var gotOnServer [][]byte

	srvCfg := NewServerConfig("127.0.0.1:0", func() Handlers {
		return Handlers{
			OnReceived: func(s *Session, data []byte) int {
				mu.Lock()
				gotOnServer = append(gotOnServer, append([]byte(nil), data...))
				mu.Unlock()
				_ = s.Send(data) // echo
				return len(data)
			},
		}
	})
	srv, err := NewServer(srvCfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	received := make(chan []byte, 1)
	clientCfg := NewClientConfig(srv.Addr().String(), Handlers{
		OnReceived: func(s *Session, data []byte) int {
			received <- append([]byte(nil), data...)
			return len(data)
		},
	}, WithTimeouts(2*time.Second, 2*time.Second, 2*time.Second))

	cli, err := NewClient(clientCfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer cli.Close()

	if err := cli.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	cli.Receive()

	if err := cli.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, []byte("hello")) {
			t.Fatalf("expected echo %q, got %q", "hello", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

func TestServerDisconnectAll(t *testing.T) {
	cfg := NewServerConfig("127.0.0.1:0", func() Handlers { return Handlers{} })
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	cli, err := NewClient(NewClientConfig(srv.Addr().String(), Handlers{}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer cli.Close()
	if err := cli.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.SessionCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.SessionCount() != 1 {
		t.Fatalf("expected 1 live session, got %d", srv.SessionCount())
	}

	srv.DisconnectAll()
	deadline = time.Now().Add(2 * time.Second)
	for srv.SessionCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.SessionCount() != 0 {
		t.Fatalf("expected 0 live sessions after DisconnectAll, got %d", srv.SessionCount())
	}
}
