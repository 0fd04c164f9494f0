// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the length-prefixed framing envelope of the TCP engine.
//
// Wire format: a 2-byte little-endian total length (header inclusive)
// followed by length-2 payload bytes. The parser is stateless between calls
// and reads only through the ring buffer's segment views, so a header or
// body straddling the physical end of the ring is reassembled correctly.
package protocol
