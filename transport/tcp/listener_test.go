package tcp_test

import (
	"context"
	"net"
	"testing"

	"github.com/momentics/hioload-tcp/transport/tcp"
)

func TestListenEphemeralPort(t *testing.T) {
	ln, err := tcp.Listen(context.Background(), tcp.ListenerConfig{Host: "127.0.0.1", NoDelay: true})
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		defer c.Close()
		done <- tcp.TuneConn(c, tcp.ListenerConfig{NoDelay: true})
	}()
	c, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	c.Close()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestListenRejectsBadPort(t *testing.T) {
	if _, err := tcp.Listen(context.Background(), tcp.ListenerConfig{Port: 70000}); err == nil {
		t.Fatal("expected error for port 70000")
	}
}

func TestListenPortInUse(t *testing.T) {
	ln, err := tcp.Listen(context.Background(), tcp.ListenerConfig{Host: "127.0.0.1"})
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port
	if _, err := tcp.Listen(context.Background(), tcp.ListenerConfig{Host: "127.0.0.1", Port: port}); err == nil {
		t.Fatal("second bind on the same port must fail without SO_REUSEPORT")
	}
}
