// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp builds the listening socket of the engine and tunes accepted
// connections. Socket options are applied through net.ListenConfig.Control
// on platforms that support them.
package tcp
