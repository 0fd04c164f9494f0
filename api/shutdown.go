// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "context"

// GracefulShutdown объединяет логику корректного завершения компонентов.
type GracefulShutdown interface {
	// Shutdown останавливает приём соединений и ждёт завершения активных
	// сессий, пока не истечёт ctx.
	Shutdown(ctx context.Context) error
}
