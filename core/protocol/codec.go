// File: core/protocol/codec.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/momentics/hioload-tcp/api"
)

// PutHeader writes the header for a payload of payloadLen bytes into dst.
func PutHeader(dst []byte, payloadLen int) error {
	if payloadLen < 0 || payloadLen > MaxPayloadLen {
		return fmt.Errorf("payload %d bytes: %w", payloadLen, api.ErrFrameTooLarge)
	}
	if len(dst) < HeaderLen {
		return fmt.Errorf("header needs %d bytes: %w", HeaderLen, api.ErrInvalidArgument)
	}
	binary.LittleEndian.PutUint16(dst, uint16(payloadLen+HeaderLen))
	return nil
}

// AppendFrame appends the encoded frame for payload to dst.
func AppendFrame(dst, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return dst, fmt.Errorf("payload %d bytes: %w", len(payload), api.ErrFrameTooLarge)
	}
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(payload)+HeaderLen))
	return append(dst, payload...), nil
}

// EncodeFrame returns a freshly allocated frame for payload.
func EncodeFrame(payload []byte) ([]byte, error) {
	return AppendFrame(make([]byte, 0, len(payload)+HeaderLen), payload)
}
