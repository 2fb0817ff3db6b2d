package tls

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	gotls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"
)

func generateSelfSignedCert(t *testing.T) Context {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1)},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	cert := gotls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
	}
	return Context{Config: &gotls.Config{
		Certificates:       []gotls.Certificate{cert},
		InsecureSkipVerify: true,
		MinVersion:         gotls.VersionTLS12,
	}}
}

func TestServerClientHandshakeAndEcho(t *testing.T) {
	ctx := generateSelfSignedCert(t)

	srvCfg := NewServerConfig("127.0.0.1:0", &ctx, func() Handlers {
		return Handlers{
			OnReceived: func(s *Session, data []byte) int {
				_ = s.Send(data)
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
	clientCfg := NewClientConfig(srv.Addr().String(), &ctx, Handlers{
		OnReceived: func(s *Session, data []byte) int {
			received <- append([]byte(nil), data...)
			return len(data)
		},
	})
	cli, err := NewClient(clientCfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer cli.Close()

	if err := cli.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !cli.IsHandshaked() {
		t.Fatal("expected client session to be handshaked after Connect")
	}
	cli.Receive()

	if err := cli.Send([]byte("hi")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case got := <-received:
		if !bytes.Equal(got, []byte("hi")) {
			t.Fatalf("expected echo %q, got %q", "hi", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
}
