// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Framing constants

package protocol

const (
	// HeaderLen is the size of the little-endian length prefix.
	HeaderLen = 2

	// MaxFrameLen is the largest total length a header can express.
	MaxFrameLen = 0xFFFF

	// MaxPayloadLen is the largest payload a single frame can carry.
	MaxPayloadLen = MaxFrameLen - HeaderLen
)
