// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

// SessionState enumerates the lifecycle of a TCP session.
type SessionState int32

const (
	SessionConnecting SessionState = iota
	SessionActive
	SessionDisconnected
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "connecting"
	case SessionActive:
		return "active"
	case SessionDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Status is the snapshot polled by dashboards.
type Status struct {
	CurrentCount    int    `json:"current_count"`
	MaxSessions     int    `json:"max_sessions"`
	TotalRecvFrames uint64 `json:"total_recv_frames"`
	TotalSendFrames uint64 `json:"total_send_frames"`
	Rejected        uint64 `json:"rejected"`
	IsRunning       bool   `json:"is_running"`
}
