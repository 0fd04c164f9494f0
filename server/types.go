// File: server/types.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-tcp/adapters"
	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/core/buffer"
	"github.com/momentics/hioload-tcp/internal/session"
)

// Config holds all server-side configuration parameters.
type Config struct {
	Host            string        // bind host, empty for all interfaces
	Port            int           // default port for Start callers, e.g. 9000
	MaxSessions     int           // admission cap of the session registry
	RecvBufferSize  int           // receive ring capacity per session
	SendBufferSize  int           // send buffer capacity per session
	PoolInitial     int           // buffers pre-allocated per pool
	PoolMax         int           // idle buffers retained per pool
	SessionShards   int           // registry lock stripes
	ReadTimeout     time.Duration // optional per-connection idle read deadline
	WriteTimeout    time.Duration // optional per-write deadline
	ShutdownTimeout time.Duration // graceful drain budget used by callers of Shutdown
	NoDelay         bool          // TCP_NODELAY on accepted connections
	ReusePort       bool          // SO_REUSEPORT on the listener (Linux)
	Behavior        string        // "echo" or "noop"
	EchoPrefix      string        // prefix of echoed payloads
	Verbose         bool          // per-frame behavior logging
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            9000,
		MaxSessions:     5000,
		RecvBufferSize:  buffer.DefaultRingSize,
		SendBufferSize:  buffer.DefaultSendSize,
		PoolInitial:     500,
		PoolMax:         5000,
		SessionShards:   16,
		ReadTimeout:     0,
		WriteTimeout:    0,
		ShutdownTimeout: 5 * time.Second,
		NoDelay:         true,
		Behavior:        adapters.BehaviorEcho,
		EchoPrefix:      adapters.DefaultEchoPrefix,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("config: port %d out of range: %w", c.Port, api.ErrInvalidArgument)
	case c.MaxSessions <= 0:
		return fmt.Errorf("config: max sessions %d: %w", c.MaxSessions, api.ErrInvalidArgument)
	case c.RecvBufferSize < 16:
		return fmt.Errorf("config: receive buffer %d bytes: %w", c.RecvBufferSize, api.ErrInvalidArgument)
	case c.SendBufferSize < 16:
		return fmt.Errorf("config: send buffer %d bytes: %w", c.SendBufferSize, api.ErrInvalidArgument)
	case c.SessionShards < 0 || c.SessionShards > session.MaxShards:
		return fmt.Errorf("config: session shards %d out of range: %w", c.SessionShards, api.ErrInvalidArgument)
	case c.PoolInitial < 0 || c.PoolMax < 0:
		return fmt.Errorf("config: pool sizes %d/%d: %w", c.PoolInitial, c.PoolMax, api.ErrInvalidArgument)
	case c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0:
		return fmt.Errorf("config: negative timeout: %w", api.ErrInvalidArgument)
	case c.Behavior != adapters.BehaviorEcho && c.Behavior != adapters.BehaviorNoop:
		return fmt.Errorf("config: behavior %q: %w", c.Behavior, api.ErrInvalidArgument)
	}
	return nil
}

// asMap flattens the config for api.Control.
func (c *Config) asMap() map[string]any {
	return map[string]any{
		"host":             c.Host,
		"port":             c.Port,
		"max_sessions":     c.MaxSessions,
		"recv_buffer_size": c.RecvBufferSize,
		"send_buffer_size": c.SendBufferSize,
		"pool_initial":     c.PoolInitial,
		"pool_max":         c.PoolMax,
		"session_shards":   c.SessionShards,
		"read_timeout":     c.ReadTimeout.String(),
		"write_timeout":    c.WriteTimeout.String(),
		"shutdown_timeout": c.ShutdownTimeout.String(),
		"no_delay":         c.NoDelay,
		"reuse_port":       c.ReusePort,
		"behavior":         c.Behavior,
	}
}
