// File: api/behavior.go
// Package api defines the pluggable per-session behavior contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// Session is the view of a live connection handed to a Behavior.
type Session interface {
	ID() uint64
	State() SessionState
	RemoteAddr() net.Addr

	// Send writes raw bytes to the peer.
	Send(data []byte) error

	// SendFrame writes payload wrapped in a length-prefixed frame.
	SendFrame(payload []byte) error

	// Disconnect closes the connection; idempotent.
	Disconnect()
}

// Behavior handles decoded frames and disconnection for one session.
// OnFrame runs on the session's receive goroutine; payload is owned by the
// callee. A returned error or a panic is logged and the session keeps running.
type Behavior interface {
	OnFrame(s Session, payload []byte) error
	OnDisconnected(s Session)
}

// BehaviorFactory builds a fresh Behavior for every accepted connection.
type BehaviorFactory func() Behavior
