// Package buffer
// Author: momentics <momentics@gmail.com>
//
// Per-session byte storage: the circular receive buffer and the linear send
// buffer. Both are allocated once, lent by the session registry from a pool,
// cleared on return and reused indefinitely.
//
// Neither type is safe for concurrent use; each instance is owned by exactly
// one session at a time.
package buffer
