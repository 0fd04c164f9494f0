// File: logging/logger.go
// Package logging
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"io"
	"log"

	"github.com/momentics/hioload-tcp/api"
)

// StdLogger writes level-tagged lines through a *log.Logger.
type StdLogger struct {
	l *log.Logger
}

var _ api.Logger = (*StdLogger)(nil)

// NewStdLogger logs to w with the given prefix and standard timestamps.
func NewStdLogger(w io.Writer, prefix string) *StdLogger {
	return &StdLogger{l: log.New(w, prefix, log.LstdFlags)}
}

// Info writes an [INFO] line.
func (s *StdLogger) Info(msg string) {
	s.l.Printf("[INFO] %s", msg)
}

// Error writes an [ERROR] line, appending err when non-nil.
func (s *StdLogger) Error(msg string, err error) {
	if err != nil {
		s.l.Printf("[ERROR] %s | %v", msg, err)
		return
	}
	s.l.Printf("[ERROR] %s", msg)
}
