package netutil

import (
	"net"
	"testing"
)

func TestApplyTCPPortableOptions(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		c, err := ln.Accept()
		if err == nil {
			c.Close()
		}
		close(done)
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	tc, ok := conn.(*net.TCPConn)
	if !ok {
		t.Fatalf("expected *net.TCPConn")
	}
	opts := DefaultSocketOptions()
	opts.ReceiveBufferSize = 64 * 1024
	opts.SendBufferSize = 64 * 1024
	if err := ApplyTCP(tc, opts); err != nil {
		t.Fatalf("ApplyTCP: %v", err)
	}
	<-done
}

func TestListenConfigWithoutReuseIsPlain(t *testing.T) {
	lc := ListenConfig(SocketOptions{})
	if lc.Control != nil {
		t.Fatalf("expected no Control hook when reuse options are both false")
	}
}
