// Package pool
// Author: momentics <momentics@gmail.com>
//
// Reusable object pools for the TCP engine.
// BoundedPool keeps a capped free-list of per-session buffers (receive rings
// and send buffers) shared by the registry and every session goroutine.
// Items beyond the cap are dropped and left to the garbage collector.
// See objpool.go for implementation details.
package pool
