// File: core/protocol/parser.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/core/buffer"
)

// Parser extracts complete frames from one RingBuffer. It keeps no state
// between calls besides the buffer reference.
type Parser struct {
	buf *buffer.RingBuffer
}

// NewParser binds a parser to buf.
func NewParser(buf *buffer.RingBuffer) (*Parser, error) {
	if buf == nil {
		return nil, fmt.Errorf("parser: nil ring buffer: %w", api.ErrInvalidArgument)
	}
	return &Parser{buf: buf}, nil
}

// TryParse consumes one complete frame and returns a copy of its payload.
// ok is false when the buffer does not yet hold a whole frame; nothing is
// consumed in that case. A header declaring fewer than HeaderLen bytes, or
// more than the ring can ever hold, yields an error and the stream is no
// longer usable.
func (p *Parser) TryParse() (payload []byte, ok bool, err error) {
	if p.buf.DataSize() < HeaderLen {
		return nil, false, nil
	}
	size := int(p.peekHeader())
	if size < HeaderLen {
		return nil, false, fmt.Errorf("declared length %d: %w", size, api.ErrMalformedFrame)
	}
	if size > p.buf.Cap()-1 {
		return nil, false, fmt.Errorf("declared length %d exceeds ring capacity %d: %w",
			size, p.buf.Cap()-1, api.ErrFrameTooLarge)
	}
	if p.buf.DataSize() < size {
		return nil, false, nil
	}

	if err := p.buf.CommitRead(HeaderLen); err != nil {
		return nil, false, err
	}
	payload = make([]byte, size-HeaderLen)
	for n := 0; n < len(payload); {
		seg := p.buf.ReadSegment()
		c := copy(payload[n:], seg)
		if err := p.buf.CommitRead(c); err != nil {
			return nil, false, err
		}
		n += c
	}
	return payload, true, nil
}

// peekHeader reads the length prefix without consuming it. When the prefix
// straddles the end of the ring the two bytes come from different segments.
func (p *Parser) peekHeader() uint16 {
	first, second := p.buf.ReadSegments()
	if len(first) >= HeaderLen {
		return binary.LittleEndian.Uint16(first)
	}
	return uint16(first[0]) | uint16(second[0])<<8
}
