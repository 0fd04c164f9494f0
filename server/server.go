// File: server/server.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection acceptor: binds the listening socket, admits connections into
// the session registry and exposes start/stop/status to the operator.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-tcp/adapters"
	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/internal/session"
	"github.com/momentics/hioload-tcp/logging"
	"github.com/momentics/hioload-tcp/transport/tcp"
)

// Server accepts TCP connections and hands each one to a Session.
type Server struct {
	cfg      *Config
	log      api.Logger
	control  api.Control
	registry *session.Registry
	behavior api.BehaviorFactory

	mu       sync.Mutex // serializes Start/Stop
	running  atomic.Bool
	ln       net.Listener
	cancel   context.CancelFunc
	loopDone chan error
}

var _ api.GracefulShutdown = (*Server)(nil)

// NewServer constructs a stopped server. A nil cfg selects DefaultConfig.
func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		log:     logging.NewStdLogger(os.Stderr, ""),
		control: adapters.NewControlAdapter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.behavior == nil {
		f, err := adapters.NewBehaviorFactory(cfg.Behavior, cfg.EchoPrefix, s.log, cfg.Verbose)
		if err != nil {
			return nil, err
		}
		s.behavior = f
	}
	s.registry = session.NewRegistry(session.RegistryConfig{
		MaxSessions:    cfg.MaxSessions,
		Shards:         cfg.SessionShards,
		RecvBufferSize: cfg.RecvBufferSize,
		SendBufferSize: cfg.SendBufferSize,
		PoolInitial:    cfg.PoolInitial,
		PoolMax:        cfg.PoolMax,
	})
	if err := s.control.SetConfig(cfg.asMap()); err != nil {
		return nil, err
	}
	s.registerProbes()
	return s, nil
}

func (s *Server) registerProbes() {
	r := s.registry
	s.control.RegisterDebugProbe("sessions.current", func() any { return r.Current() })
	s.control.RegisterDebugProbe("sessions.max", func() any { return r.Max() })
	s.control.RegisterDebugProbe("sessions.rejected", func() any { return r.Rejected() })
	s.control.RegisterDebugProbe("frames.recv", func() any { return r.TotalRecvFrames() })
	s.control.RegisterDebugProbe("frames.sent", func() any { return r.TotalSendFrames() })
	s.control.RegisterDebugProbe("pool.recv.idle", func() any { return r.RecvPoolStats().Idle })
	s.control.RegisterDebugProbe("pool.send.idle", func() any { return r.SendPoolStats().Idle })
	s.control.RegisterDebugProbe("server.running", func() any { return s.running.Load() })
}

// Start binds port on the configured host and launches the accept loop.
// Calling Start on a running server logs and returns nil.
func (s *Server) Start(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		s.log.Info(fmt.Sprintf("start ignored: %v", api.ErrAlreadyRunning))
		return nil
	}
	s.reap()
	ctx, cancel := context.WithCancel(context.Background())
	ln, err := tcp.Listen(ctx, s.listenerConfig(port))
	if err != nil {
		cancel()
		s.log.Error(fmt.Sprintf("failed to start server on port %d", port), err)
		return fmt.Errorf("server start: %w", err)
	}

	done := make(chan error, 1)
	s.ln, s.cancel, s.loopDone = ln, cancel, done
	s.running.Store(true)
	s.control.SetMetric("server.port", port)
	s.control.SetMetric("server.started_at", time.Now())
	s.log.Info(fmt.Sprintf("TCP server listening on %s", ln.Addr()))

	go func() { done <- s.acceptLoop(ctx, ln) }()
	return nil
}

// Stop closes the listener and waits for the accept loop to exit.
// Established sessions keep running; use Shutdown to drain them too.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		s.reap()
		s.log.Info(fmt.Sprintf("stop ignored: %v", api.ErrNotRunning))
		return nil
	}
	s.cancel()
	_ = s.ln.Close()
	err := <-s.loopDone
	s.ln, s.cancel, s.loopDone = nil, nil, nil
	s.running.Store(false)
	s.control.SetMetric("server.stopped_at", time.Now())
	s.log.Info("TCP server stopped")
	if err != nil {
		return fmt.Errorf("server stop: %w", err)
	}
	return nil
}

// reap collects an accept loop that died on its own. Its error was logged
// when it happened.
func (s *Server) reap() {
	if s.ln == nil {
		return
	}
	s.cancel()
	if err := <-s.loopDone; err != nil {
		s.log.Info(fmt.Sprintf("reaped accept loop: %v", err))
	}
	s.ln, s.cancel, s.loopDone = nil, nil, nil
}

// Shutdown stops accepting, disconnects every session and waits until the
// registry is empty or ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	stopErr := s.Stop()
	s.registry.DisconnectAll()
	if err := s.registry.Drain(ctx); err != nil {
		s.log.Error(fmt.Sprintf("shutdown: %d sessions still open", s.registry.Current()), err)
		return errors.Join(stopErr, err)
	}
	return stopErr
}

// CloseSessions disconnects every live session without touching the listener.
func (s *Server) CloseSessions() {
	s.registry.DisconnectAll()
}

// IsRunning reports whether the accept loop is live.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// Addr returns the bound listener address, nil when stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Status returns a point-in-time snapshot of the server.
func (s *Server) Status() api.Status {
	return api.Status{
		CurrentCount:    s.registry.Current(),
		MaxSessions:     s.registry.Max(),
		TotalRecvFrames: s.registry.TotalRecvFrames(),
		TotalSendFrames: s.registry.TotalSendFrames(),
		Rejected:        s.registry.Rejected(),
		IsRunning:       s.running.Load(),
	}
}

// GetControl returns the control surface.
func (s *Server) GetControl() api.Control {
	return s.control
}

// Sessions exposes the registry for lookups and iteration.
func (s *Server) Sessions() *session.Registry {
	return s.registry
}

func (s *Server) listenerConfig(port int) tcp.ListenerConfig {
	return tcp.ListenerConfig{
		Host:      s.cfg.Host,
		Port:      port,
		ReusePort: s.cfg.ReusePort,
		NoDelay:   s.cfg.NoDelay,
	}
}

// acceptLoop runs until the listener is closed. A cancelled ctx means the
// close was requested and the loop exits cleanly.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	defer s.running.Store(false)
	lc := s.listenerConfig(0)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("accept failed, listener stopped", err)
			_ = ln.Close()
			return fmt.Errorf("accept: %w", err)
		}
		s.admit(conn, lc)
	}
}

func (s *Server) admit(conn net.Conn, lc tcp.ListenerConfig) {
	if err := tcp.TuneConn(conn, lc); err != nil {
		s.log.Error(fmt.Sprintf("tune %v", conn.RemoteAddr()), err)
	}
	sess := session.New(s.behavior(), s.log, session.Options{
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	})
	if !s.registry.Register(sess) {
		s.log.Info(fmt.Sprintf("connection from %v refused: %v (%d/%d)",
			conn.RemoteAddr(), api.ErrCapacityExceeded, s.registry.Current(), s.registry.Max()))
		_ = conn.Close()
		return
	}
	if err := sess.Start(conn); err != nil {
		s.log.Error(fmt.Sprintf("session %d start", sess.ID()), err)
		s.registry.Unregister(sess)
		_ = conn.Close()
	}
}
