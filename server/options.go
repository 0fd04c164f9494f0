// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import "github.com/momentics/hioload-tcp/api"

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger routes engine logs to l.
func WithLogger(l api.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBehavior overrides the behavior named in Config.
func WithBehavior(f api.BehaviorFactory) ServerOption {
	return func(s *Server) {
		s.behavior = f
	}
}
