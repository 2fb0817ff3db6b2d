package udp

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestClientServerEcho(t *testing.T) {
	srvReceived := make(chan []byte, 1)
	srv, err := NewServer(NewServerConfig("127.0.0.1:0", Handlers{}))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.cfg.Handlers.OnReceived = func(s *Server, from *net.UDPAddr, data []byte) {
		srvReceived <- append([]byte(nil), data...)
		_ = s.Send(from, data)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	cliReceived := make(chan []byte, 1)
	cli, err := NewClient(NewClientConfig(srv.Addr().String(), ClientHandlers{
		OnReceived: func(c *Client, data []byte) {
			cliReceived <- append([]byte(nil), data...)
		},
	}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer cli.Close()
	if err := cli.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := cli.Send([]byte("ping")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-srvReceived:
		if !bytes.Equal(got, []byte("ping")) {
			t.Fatalf("server got unexpected datagram: %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server timed out waiting for datagram")
	}

	select {
	case got := <-cliReceived:
		if !bytes.Equal(got, []byte("ping")) {
			t.Fatalf("client got unexpected echo: %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client timed out waiting for echo")
	}
}

func TestMulticastWithoutConfigErrors(t *testing.T) {
	srv, err := NewServer(NewServerConfig("127.0.0.1:0", Handlers{}))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	if err := srv.Multicast([]byte("x")); err == nil {
		t.Fatal("expected Multicast to fail without a configured MulticastAddr")
	}
}
