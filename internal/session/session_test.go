package session_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/core/protocol"
	"github.com/momentics/hioload-tcp/internal/session"
)

func frame(t *testing.T, payload string) []byte {
	t.Helper()
	f, err := protocol.EncodeFrame([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func startSession(t *testing.T, reg *session.Registry, b api.Behavior) (*session.Session, *memLogger, io.ReadWriteCloser) {
	t.Helper()
	srv, cli := tcpPair(t)
	log := &memLogger{}
	s := session.New(b, log, session.Options{})
	if !reg.Register(s) {
		t.Fatal("register failed")
	}
	if err := s.Start(srv); err != nil {
		t.Fatal(err)
	}
	return s, log, cli
}

func TestSessionStartNilConn(t *testing.T) {
	reg := smallRegistry(1)
	s := session.New(newRecorder(), &memLogger{}, session.Options{})
	reg.Register(s)
	if err := s.Start(nil); !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if s.State() != api.SessionConnecting {
		t.Fatalf("state = %s", s.State())
	}
}

func TestSessionStartRequiresAdmission(t *testing.T) {
	srv, _ := tcpPair(t)
	s := session.New(newRecorder(), &memLogger{}, session.Options{})
	if err := s.Start(srv); !errors.Is(err, api.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestSessionDispatchesFramesInOrder(t *testing.T) {
	reg := smallRegistry(4)
	rec := newRecorder()
	s, _, cli := startSession(t, reg, rec)
	if s.State() != api.SessionActive {
		t.Fatalf("state = %s, want active", s.State())
	}

	// Several frames in one write, then one frame split across writes.
	var batch []byte
	for i := 0; i < 5; i++ {
		batch = append(batch, frame(t, fmt.Sprintf("msg-%d", i))...)
	}
	if _, err := cli.Write(batch); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if got := string(recvFrame(t, rec.frames)); got != fmt.Sprintf("msg-%d", i) {
			t.Fatalf("frame %d = %q", i, got)
		}
	}
	split := frame(t, "split-frame")
	cli.Write(split[:1])
	time.Sleep(10 * time.Millisecond)
	cli.Write(split[1:6])
	time.Sleep(10 * time.Millisecond)
	cli.Write(split[6:])
	if got := string(recvFrame(t, rec.frames)); got != "split-frame" {
		t.Fatalf("split frame = %q", got)
	}
	waitFor(t, "recv counter", func() bool { return reg.TotalRecvFrames() == 6 })
}

// Enough traffic to wrap a 64-byte ring many times.
func TestSessionWrapsReceiveRing(t *testing.T) {
	reg := smallRegistry(1)
	rec := newRecorder()
	_, _, cli := startSession(t, reg, rec)
	frames := make([][]byte, 40)
	for i := range frames {
		frames[i] = frame(t, fmt.Sprintf("payload-%02d-abcdefghij", i))
	}
	go func() {
		for _, f := range frames {
			cli.Write(f)
		}
	}()
	for i := 0; i < 40; i++ {
		want := fmt.Sprintf("payload-%02d-abcdefghij", i)
		if got := string(recvFrame(t, rec.frames)); got != want {
			t.Fatalf("frame %d = %q, want %q", i, got, want)
		}
	}
}

func TestSessionBehaviorFaultKeepsSessionAlive(t *testing.T) {
	reg := smallRegistry(1)
	rec := newRecorder()
	rec.handle = func(_ api.Session, payload []byte) error {
		switch string(payload) {
		case "panic":
			panic("boom")
		case "fail":
			return errors.New("handler failed")
		}
		return nil
	}
	s, log, cli := startSession(t, reg, rec)
	cli.Write(frame(t, "panic"))
	cli.Write(frame(t, "fail"))
	cli.Write(frame(t, "ok"))
	for i := 0; i < 3; i++ {
		recvFrame(t, rec.frames)
	}
	if s.State() != api.SessionActive {
		t.Fatalf("state = %s after behavior faults", s.State())
	}
	waitFor(t, "recv counter", func() bool { return reg.TotalRecvFrames() == 1 })
	log.mu.Lock()
	defer log.mu.Unlock()
	faults := 0
	for _, l := range log.lines {
		if bytes.Contains([]byte(l), []byte(api.ErrBehaviorFault.Error())) {
			faults++
		}
	}
	if faults != 2 {
		t.Fatalf("logged %d behavior faults, want 2: %v", faults, log.lines)
	}
}

func TestSessionPeerCloseUnregisters(t *testing.T) {
	reg := smallRegistry(1)
	rec := newRecorder()
	s, _, cli := startSession(t, reg, rec)
	cli.Close()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish after peer close")
	}
	if reg.Current() != 0 {
		t.Fatalf("Current = %d, want 0", reg.Current())
	}
	if s.State() != api.SessionDisconnected {
		t.Fatalf("state = %s", s.State())
	}
	if rec.disconnected.Load() != 1 {
		t.Fatalf("OnDisconnected called %d times", rec.disconnected.Load())
	}
	s.Disconnect()
	if rec.disconnected.Load() != 1 {
		t.Fatal("second Disconnect re-notified")
	}
}

func TestSessionSendAndSendFrame(t *testing.T) {
	reg := smallRegistry(1)
	rec := newRecorder()
	s, _, cli := startSession(t, reg, rec)

	if err := s.SendFrame([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := s.Send([]byte{0x03, 0x00, 'x'}); err != nil {
		t.Fatal(err)
	}
	if err := s.Send(nil); err != nil {
		t.Fatal(err)
	}
	// Larger than the 64-byte send buffer: falls back to a fresh frame.
	big := bytes.Repeat([]byte("z"), 100)
	if err := s.SendFrame(big); err != nil {
		t.Fatal(err)
	}

	want := append(frame(t, "hello"), 0x03, 0x00, 'x')
	want = append(want, frame(t, string(big))...)
	got := make([]byte, len(want))
	if _, err := io.ReadFull(cli, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("wire bytes mismatch")
	}
	if reg.TotalSendFrames() != 3 {
		t.Fatalf("TotalSendFrames = %d, want 3", reg.TotalSendFrames())
	}

	s.Disconnect()
	<-s.Done()
	if err := s.Send([]byte("late")); err != nil {
		t.Fatalf("send after disconnect: %v", err)
	}
	if reg.TotalSendFrames() != 3 {
		t.Fatal("send after disconnect counted")
	}
}

func TestSessionOversizedFrameDisconnects(t *testing.T) {
	reg := smallRegistry(1)
	s, _, cli := startSession(t, reg, newRecorder())
	// Declares 200 bytes; the 64-byte ring can never hold it.
	cli.Write([]byte{200, 0, 1, 2, 3})
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session survived an oversized frame")
	}
	if reg.Current() != 0 {
		t.Fatalf("Current = %d, want 0", reg.Current())
	}
}

func TestSessionReadTimeout(t *testing.T) {
	reg := smallRegistry(1)
	srv, _ := tcpPair(t)
	s := session.New(newRecorder(), &memLogger{}, session.Options{ReadTimeout: 30 * time.Millisecond})
	reg.Register(s)
	if err := s.Start(srv); err != nil {
		t.Fatal(err)
	}
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("idle session was not dropped")
	}
}

func TestSessionSendFailureDisconnects(t *testing.T) {
	reg := smallRegistry(1)
	srv, cli := net.Pipe()
	defer cli.Close()
	rec := newRecorder()
	s := session.New(rec, &memLogger{}, session.Options{WriteTimeout: 20 * time.Millisecond})
	if !reg.Register(s) {
		t.Fatal("register failed")
	}
	if err := s.Start(srv); err != nil {
		t.Fatal(err)
	}

	// nobody reads cli, so the synchronous pipe write times out
	err := s.SendFrame([]byte("stuck"))
	if !errors.Is(err, api.ErrTransport) {
		t.Fatalf("SendFrame err = %v, want ErrTransport", err)
	}
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish after send failure")
	}
	if s.State() != api.SessionDisconnected {
		t.Fatalf("state = %s", s.State())
	}
	if reg.Current() != 0 {
		t.Fatalf("current = %d, want 0", reg.Current())
	}
	if reg.TotalSendFrames() != 0 {
		t.Fatalf("sent = %d, failed send must not count", reg.TotalSendFrames())
	}
	if rec.disconnected.Load() != 1 {
		t.Fatalf("OnDisconnected calls = %d", rec.disconnected.Load())
	}
	if err := s.Send([]byte("late")); err != nil {
		t.Fatalf("Send after disconnect = %v, want nil", err)
	}
}
