// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared by the buffer, protocol, session and server layers.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrOutOfRange       = fmt.Errorf("length out of range")
	ErrCapacityExceeded = fmt.Errorf("session capacity exceeded")
	ErrBufferExhausted  = fmt.Errorf("receive buffer exhausted")
	ErrBufferOverflow   = fmt.Errorf("send buffer overflow")
	ErrTransport        = fmt.Errorf("transport error")
	ErrBehaviorFault    = fmt.Errorf("behavior fault")
	ErrFrameTooLarge    = fmt.Errorf("frame too large")
	ErrMalformedFrame   = fmt.Errorf("malformed frame")
	ErrInvalidState     = fmt.Errorf("invalid session state")
	ErrAlreadyRunning   = fmt.Errorf("server already running")
	ErrNotRunning       = fmt.Errorf("server not running")
)
