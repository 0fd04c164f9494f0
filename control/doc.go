// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime introspection layer of the TCP engine.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot store of the effective server configuration
//   - Metrics registry for timestamps and gauges set by the acceptor
//   - Debug probes evaluated lazily on every Stats() call
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
