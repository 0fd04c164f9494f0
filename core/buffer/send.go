// File: core/buffer/send.go
// Package buffer
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"fmt"

	"github.com/momentics/hioload-tcp/api"
)

// DefaultSendSize is the send buffer capacity used when none is configured.
const DefaultSendSize = 4096

// SendBuffer is a fixed-capacity linear staging area for outbound bytes.
type SendBuffer struct {
	buf    []byte
	length int
}

// NewSendBuffer allocates a send buffer of the given capacity.
func NewSendBuffer(capacity int) *SendBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &SendBuffer{buf: make([]byte, capacity)}
}

// Cap returns the capacity.
func (s *SendBuffer) Cap() int { return len(s.buf) }

// Len returns the number of staged bytes.
func (s *SendBuffer) Len() int { return s.length }

// Available returns the remaining capacity.
func (s *SendBuffer) Available() int { return len(s.buf) - s.length }

// Write appends p. Nothing is written if p does not fit.
func (s *SendBuffer) Write(p []byte) (int, error) {
	if s.length+len(p) > len(s.buf) {
		return 0, fmt.Errorf("write %d (available %d): %w", len(p), s.Available(), api.ErrBufferOverflow)
	}
	copy(s.buf[s.length:], p)
	s.length += len(p)
	return len(p), nil
}

// Bytes returns the staged bytes. The slice aliases internal storage and is
// valid until the next Write or Clear.
func (s *SendBuffer) Bytes() []byte {
	return s.buf[:s.length]
}

// Clear drops staged bytes.
func (s *SendBuffer) Clear() {
	s.length = 0
}

var _ api.Clearable = (*SendBuffer)(nil)
