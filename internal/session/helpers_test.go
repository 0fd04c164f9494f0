package session_test

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/nettest"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/internal/session"
)

type memLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *memLogger) Info(msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, "INFO "+msg)
	l.mu.Unlock()
}

func (l *memLogger) Error(msg string, err error) {
	l.mu.Lock()
	l.lines = append(l.lines, "ERROR "+msg+": "+err.Error())
	l.mu.Unlock()
}

type recorder struct {
	frames       chan []byte
	disconnected atomic.Int32
	handle       func(s api.Session, payload []byte) error
}

func newRecorder() *recorder {
	return &recorder{frames: make(chan []byte, 64)}
}

func (r *recorder) OnFrame(s api.Session, payload []byte) error {
	r.frames <- payload
	if r.handle != nil {
		return r.handle(s, payload)
	}
	return nil
}

func (r *recorder) OnDisconnected(api.Session) {
	r.disconnected.Add(1)
}

func smallRegistry(max int) *session.Registry {
	return session.NewRegistry(session.RegistryConfig{
		MaxSessions:    max,
		Shards:         4,
		RecvBufferSize: 64,
		SendBufferSize: 64,
		PoolInitial:    2,
		PoolMax:        8,
	})
}

// tcpPair returns both ends of a loopback TCP connection.
func tcpPair(t *testing.T) (server, client net.Conn) {
	t.Helper()
	ln, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- c
	}()
	client, err = net.Dial(ln.Addr().Network(), ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	server, ok := <-accepted
	if !ok {
		t.Fatal("accept failed")
	}
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return server, client
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func recvFrame(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}
