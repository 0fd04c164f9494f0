// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// ListenerConfig holds configuration for the TCP listener.
type ListenerConfig struct {
	Host      string // bind host, empty for all interfaces
	Port      int    // bind port, 0 picks an ephemeral port
	ReusePort bool   // SO_REUSEPORT where supported
	NoDelay   bool   // TCP_NODELAY on accepted connections
}

// Listen binds a TCP listening socket with the configured socket options.
func Listen(ctx context.Context, cfg ListenerConfig) (net.Listener, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("tcp listen: port %d out of range", cfg.Port)
	}
	lc := net.ListenConfig{Control: socketControl(cfg)}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcp listen %s: %w", addr, err)
	}
	return ln, nil
}

// TuneConn applies per-connection options to an accepted connection.
func TuneConn(conn net.Conn, cfg ListenerConfig) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	return tc.SetNoDelay(cfg.NoDelay)
}
