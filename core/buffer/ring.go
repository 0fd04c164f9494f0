// File: core/buffer/ring.go
// Package buffer
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-capacity circular byte store with independent read/write cursors.

package buffer

import (
	"fmt"

	"github.com/momentics/hioload-tcp/api"
)

// DefaultRingSize is the receive buffer capacity used when none is configured.
const DefaultRingSize = 4096

// RingBuffer is a circular byte store. One byte of capacity is always kept
// free so that readPos == writePos means empty; usable data is at most
// Cap()-1 bytes.
type RingBuffer struct {
	buf      []byte
	readPos  int
	writePos int
}

// NewRingBuffer allocates a ring of the given capacity (minimum 2).
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &RingBuffer{buf: make([]byte, capacity)}
}

// Cap returns the physical capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// DataSize returns the number of bytes available to read.
func (r *RingBuffer) DataSize() int {
	if r.writePos >= r.readPos {
		return r.writePos - r.readPos
	}
	return len(r.buf) - r.readPos + r.writePos
}

// FreeSize returns the number of bytes available to write.
func (r *RingBuffer) FreeSize() int {
	return len(r.buf) - r.DataSize() - 1
}

// ReadSegment returns the first contiguous run of readable bytes. When the
// data wraps past the end of the array the remainder becomes visible only
// after CommitRead consumes this run.
func (r *RingBuffer) ReadSegment() []byte {
	if r.writePos >= r.readPos {
		return r.buf[r.readPos:r.writePos]
	}
	return r.buf[r.readPos:]
}

// ReadSegments returns both runs of readable bytes without consuming them.
// second is empty unless the data wraps.
func (r *RingBuffer) ReadSegments() (first, second []byte) {
	if r.writePos >= r.readPos {
		return r.buf[r.readPos:r.writePos], nil
	}
	return r.buf[r.readPos:], r.buf[:r.writePos]
}

// WriteSegment returns the first contiguous run of writable bytes.
func (r *RingBuffer) WriteSegment() []byte {
	if r.writePos >= r.readPos {
		if r.readPos == 0 {
			return r.buf[r.writePos : len(r.buf)-1]
		}
		return r.buf[r.writePos:]
	}
	return r.buf[r.writePos : r.readPos-1]
}

// CommitWrite marks n bytes of the write segment as filled.
func (r *RingBuffer) CommitWrite(n int) error {
	if n < 0 || n > r.FreeSize() {
		return fmt.Errorf("commit write %d (free %d): %w", n, r.FreeSize(), api.ErrOutOfRange)
	}
	r.writePos = (r.writePos + n) % len(r.buf)
	return nil
}

// CommitRead consumes n bytes.
func (r *RingBuffer) CommitRead(n int) error {
	if n < 0 || n > r.DataSize() {
		return fmt.Errorf("commit read %d (data %d): %w", n, r.DataSize(), api.ErrOutOfRange)
	}
	r.readPos = (r.readPos + n) % len(r.buf)
	return nil
}

// Write copies p into the ring, issuing a second copy when the free region
// wraps. It fails without writing anything if p does not fit.
func (r *RingBuffer) Write(p []byte) (int, error) {
	if len(p) > r.FreeSize() {
		return 0, fmt.Errorf("write %d (free %d): %w", len(p), r.FreeSize(), api.ErrOutOfRange)
	}
	written := 0
	for written < len(p) {
		n := copy(r.WriteSegment(), p[written:])
		if err := r.CommitWrite(n); err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// Read drains up to len(p) bytes into p.
func (r *RingBuffer) Read(p []byte) (int, error) {
	read := 0
	for read < len(p) {
		seg := r.ReadSegment()
		if len(seg) == 0 {
			break
		}
		n := copy(p[read:], seg)
		if err := r.CommitRead(n); err != nil {
			return read, err
		}
		read += n
	}
	return read, nil
}

// Clear resets both cursors. Storage is kept.
func (r *RingBuffer) Clear() {
	r.readPos = 0
	r.writePos = 0
}

var _ api.Clearable = (*RingBuffer)(nil)
