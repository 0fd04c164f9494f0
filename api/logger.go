// File: api/logger.go
// Package api defines the Logger contract consumed by the engine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Logger accepts leveled messages. Implementations must be safe for
// concurrent use by every session goroutine.
type Logger interface {
	Info(msg string)
	Error(msg string, err error)
}

// LineSource publishes every produced log line to subscribers.
type LineSource interface {
	// Subscribe registers fn and returns a function removing it.
	Subscribe(fn func(line string)) (cancel func())
}
