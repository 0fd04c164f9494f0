// File: internal/session/session.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Session lifecycle: Connecting -> Active -> Disconnected.

package session

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/core/buffer"
	"github.com/momentics/hioload-tcp/core/protocol"
)

// observer receives session notifications. The Registry is the only
// implementation; it is attached at admission time.
type observer interface {
	frameReceived()
	frameSent()
	sessionClosed(s *Session)
}

// Options tunes per-connection I/O.
type Options struct {
	ReadTimeout  time.Duration // idle read deadline, 0 disables
	WriteTimeout time.Duration // per-write deadline, 0 disables
}

// Session holds per-connection state, buffers and the behavior hook.
type Session struct {
	id       uint64
	state    atomic.Int32
	behavior api.Behavior
	log      api.Logger
	opts     Options
	owner    observer

	conn   net.Conn
	recv   *buffer.RingBuffer
	parser *protocol.Parser

	sendMu sync.Mutex
	send   *buffer.SendBuffer

	done chan struct{}
}

var _ api.Session = (*Session)(nil)

// New creates an unadmitted session in the Connecting state.
func New(behavior api.Behavior, logger api.Logger, opts Options) *Session {
	return &Session{
		behavior: behavior,
		log:      logger,
		opts:     opts,
		done:     make(chan struct{}),
	}
}

// ID returns the registry-assigned identifier, 0 before admission.
func (s *Session) ID() uint64 {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() api.SessionState {
	return api.SessionState(s.state.Load())
}

// RemoteAddr returns the peer address once the session has started.
func (s *Session) RemoteAddr() net.Addr {
	if s.State() == api.SessionConnecting || s.conn == nil {
		return nil
	}
	return s.conn.RemoteAddr()
}

// Done is closed after the receive loop has exited and the session has been
// released by its registry.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// attach binds registry-owned identity and buffers.
func (s *Session) attach(id uint64, recv *buffer.RingBuffer, send *buffer.SendBuffer, owner observer) {
	s.id = id
	s.recv = recv
	s.owner = owner
	s.sendMu.Lock()
	s.send = send
	s.sendMu.Unlock()
}

// detach hands the buffers back. Must not run while the receive loop is
// still reading into recv.
func (s *Session) detach() (*buffer.RingBuffer, *buffer.SendBuffer) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	recv, send := s.recv, s.send
	s.recv, s.send, s.parser = nil, nil, nil
	return recv, send
}

// Start binds conn, marks the session Active and launches its receive loop.
func (s *Session) Start(conn net.Conn) error {
	if conn == nil {
		return fmt.Errorf("session start: nil connection: %w", api.ErrInvalidArgument)
	}
	if s.recv == nil {
		return fmt.Errorf("session start: not admitted by a registry: %w", api.ErrInvalidState)
	}
	parser, err := protocol.NewParser(s.recv)
	if err != nil {
		return err
	}
	s.conn = conn
	s.parser = parser
	if !s.state.CompareAndSwap(int32(api.SessionConnecting), int32(api.SessionActive)) {
		return fmt.Errorf("session %d start from %s: %w", s.id, s.State(), api.ErrInvalidState)
	}
	s.log.Info(fmt.Sprintf("session %d: connected from %v", s.id, conn.RemoteAddr()))
	go s.receiveLoop()
	return nil
}

// Disconnect closes the transport and marks the session Disconnected.
// Repeated calls are no-ops. The registry is notified once the receive loop
// observes the closed socket.
func (s *Session) Disconnect() {
	for {
		st := s.state.Load()
		if st == int32(api.SessionDisconnected) {
			return
		}
		if s.state.CompareAndSwap(st, int32(api.SessionDisconnected)) {
			if st == int32(api.SessionActive) {
				_ = s.conn.Close()
			}
			return
		}
	}
}

// Send writes raw bytes to the peer. It is a no-op when the session is not
// Active or data is empty.
func (s *Session) Send(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	s.sendMu.Lock()
	if s.State() != api.SessionActive {
		s.sendMu.Unlock()
		return nil
	}
	err := s.write(data)
	s.sendMu.Unlock()
	return s.afterWrite(err)
}

// SendFrame encodes payload into the pooled send buffer and writes it.
// Frames larger than the send buffer are encoded into a fresh allocation.
func (s *Session) SendFrame(payload []byte) error {
	if len(payload) > protocol.MaxPayloadLen {
		return fmt.Errorf("session %d send frame: %d bytes: %w", s.id, len(payload), api.ErrFrameTooLarge)
	}
	s.sendMu.Lock()
	if s.State() != api.SessionActive {
		s.sendMu.Unlock()
		return nil
	}
	var frame []byte
	if s.send != nil && s.send.Cap() >= len(payload)+protocol.HeaderLen {
		var hdr [protocol.HeaderLen]byte
		_ = protocol.PutHeader(hdr[:], len(payload))
		s.send.Clear()
		s.send.Write(hdr[:])
		s.send.Write(payload)
		frame = s.send.Bytes()
	} else {
		frame, _ = protocol.EncodeFrame(payload)
	}
	err := s.write(frame)
	s.sendMu.Unlock()
	return s.afterWrite(err)
}

func (s *Session) write(p []byte) error {
	if s.opts.WriteTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
			return err
		}
	}
	_, err := s.conn.Write(p)
	return err
}

func (s *Session) afterWrite(err error) error {
	if err != nil {
		s.log.Error(fmt.Sprintf("session %d: send failed", s.id), err)
		s.Disconnect()
		return fmt.Errorf("session %d send: %w: %w", s.id, api.ErrTransport, err)
	}
	if s.owner != nil {
		s.owner.frameSent()
	}
	return nil
}

// receiveLoop runs until the socket closes, errors, or the ring fills up.
func (s *Session) receiveLoop() {
	defer s.finish()
	for s.State() == api.SessionActive {
		seg := s.recv.WriteSegment()
		if len(seg) == 0 {
			s.log.Error(fmt.Sprintf("session %d: receive buffer full", s.id), api.ErrBufferExhausted)
			return
		}
		if s.opts.ReadTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
				s.readFailed(err)
				return
			}
		}
		n, err := s.conn.Read(seg)
		if n > 0 {
			if cerr := s.recv.CommitWrite(n); cerr != nil {
				s.log.Error(fmt.Sprintf("session %d: commit receive", s.id), cerr)
				return
			}
			if perr := s.drain(); perr != nil {
				s.log.Error(fmt.Sprintf("session %d: protocol error", s.id), perr)
				return
			}
		}
		if err != nil {
			s.readFailed(err)
			return
		}
		if n == 0 {
			s.log.Info(fmt.Sprintf("session %d: peer closed connection", s.id))
			return
		}
	}
}

// drain dispatches every complete frame currently buffered, in order.
func (s *Session) drain() error {
	for {
		payload, ok, err := s.parser.TryParse()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		s.dispatch(payload)
	}
}

func (s *Session) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(fmt.Sprintf("session %d: frame handler panic: %v", s.id, r), api.ErrBehaviorFault)
		}
	}()
	if err := s.behavior.OnFrame(s, payload); err != nil {
		s.log.Error(fmt.Sprintf("session %d: frame handler", s.id), fmt.Errorf("%w: %w", api.ErrBehaviorFault, err))
		return
	}
	if s.owner != nil {
		s.owner.frameReceived()
	}
}

func (s *Session) readFailed(err error) {
	var nerr net.Error
	switch {
	case errors.Is(err, io.EOF):
		s.log.Info(fmt.Sprintf("session %d: peer closed connection", s.id))
	case errors.Is(err, net.ErrClosed) || s.State() == api.SessionDisconnected:
		// closed locally
	case errors.As(err, &nerr) && nerr.Timeout():
		s.log.Info(fmt.Sprintf("session %d: read timeout", s.id))
	default:
		s.log.Error(fmt.Sprintf("session %d: receive failed", s.id), fmt.Errorf("%w: %w", api.ErrTransport, err))
	}
}

// finish runs exactly once, on the receive goroutine.
func (s *Session) finish() {
	s.Disconnect()
	if s.owner != nil {
		s.owner.sessionClosed(s)
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error(fmt.Sprintf("session %d: disconnect handler panic: %v", s.id, r), api.ErrBehaviorFault)
			}
		}()
		s.behavior.OnDisconnected(s)
	}()
	s.log.Info(fmt.Sprintf("session %d: disconnected", s.id))
	close(s.done)
}
