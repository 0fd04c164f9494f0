// File: adapters/behavior_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
//
// BehaviorFunc glue and the stock session behaviors (echo, no-op).

package adapters

import (
	"fmt"

	"github.com/momentics/hioload-tcp/api"
)

// Behavior names accepted by NewBehaviorFactory.
const (
	BehaviorEcho = "echo"
	BehaviorNoop = "noop"
)

// DefaultEchoPrefix is prepended to every echoed payload.
const DefaultEchoPrefix = "server reply: "

// BehaviorFunc converts a pair of functions into an api.Behavior.
// Nil fields are skipped.
type BehaviorFunc struct {
	Frame        func(s api.Session, payload []byte) error
	Disconnected func(s api.Session)
}

// OnFrame calls Frame.
func (f BehaviorFunc) OnFrame(s api.Session, payload []byte) error {
	if f.Frame == nil {
		return nil
	}
	return f.Frame(s, payload)
}

// OnDisconnected calls Disconnected.
func (f BehaviorFunc) OnDisconnected(s api.Session) {
	if f.Disconnected != nil {
		f.Disconnected(s)
	}
}

// EchoBehavior answers every frame with a frame carrying Prefix+payload.
type EchoBehavior struct {
	Prefix  string
	Log     api.Logger
	Verbose bool
}

// OnFrame sends the transformed copy back to the peer.
func (e *EchoBehavior) OnFrame(s api.Session, payload []byte) error {
	if e.Verbose {
		e.Log.Info(fmt.Sprintf("session %d: recv %q", s.ID(), payload))
	}
	reply := make([]byte, 0, len(e.Prefix)+len(payload))
	reply = append(reply, e.Prefix...)
	reply = append(reply, payload...)
	return s.SendFrame(reply)
}

// OnDisconnected logs the end of the session when verbose.
func (e *EchoBehavior) OnDisconnected(s api.Session) {
	if e.Verbose {
		e.Log.Info(fmt.Sprintf("session %d: echo session closed", s.ID()))
	}
}

// NoopBehavior only observes traffic.
type NoopBehavior struct {
	Log     api.Logger
	Verbose bool
}

// OnFrame records the frame size when verbose.
func (n *NoopBehavior) OnFrame(s api.Session, payload []byte) error {
	if n.Verbose {
		n.Log.Info(fmt.Sprintf("session %d: frame of %d bytes", s.ID(), len(payload)))
	}
	return nil
}

// OnDisconnected logs the end of the session when verbose.
func (n *NoopBehavior) OnDisconnected(s api.Session) {
	if n.Verbose {
		n.Log.Info(fmt.Sprintf("session %d: disconnect handled", s.ID()))
	}
}

// NewBehaviorFactory resolves a behavior by name.
func NewBehaviorFactory(name, echoPrefix string, log api.Logger, verbose bool) (api.BehaviorFactory, error) {
	switch name {
	case BehaviorEcho, "":
		return func() api.Behavior {
			return &EchoBehavior{Prefix: echoPrefix, Log: log, Verbose: verbose}
		}, nil
	case BehaviorNoop:
		return func() api.Behavior {
			return &NoopBehavior{Log: log, Verbose: verbose}
		}, nil
	default:
		return nil, fmt.Errorf("behavior %q: %w", name, api.ErrInvalidArgument)
	}
}
