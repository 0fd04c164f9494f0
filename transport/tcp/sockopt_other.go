//go:build !linux
// +build !linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import "syscall"

// socketControl leaves platform defaults in place.
func socketControl(ListenerConfig) func(network, address string, c syscall.RawConn) error {
	return nil
}
