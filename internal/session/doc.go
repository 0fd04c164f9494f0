// Package session
// Author: momentics <momentics@gmail.com>
//
// Per-connection session state machine and the sharded registry of live
// sessions.
//
// A Session owns one receive goroutine that fills its ring buffer from the
// socket and drains complete frames into the Behavior. The Registry admits
// sessions under a capacity cap, lends them pooled buffers and takes the
// buffers back exactly once, after the receive goroutine has exited.
package session
