// Package lsp defines domain types for supervising the language server
// connection: lifecycle states, the launch configuration and status snapshots
// shared by the service, adapter and handler layers.
package lsp

import (
	"fmt"
	"time"
)

// SessionState is the lifecycle state of the supervised client connection.
type SessionState string

const (
	StateUninitialized SessionState = "uninitialized"
	StateRunning       SessionState = "running"
	StateStopped       SessionState = "stopped"
)

// ServerConfig describes how to launch and identify the language server.
type ServerConfig struct {
	Command     string   // executable name to locate/install, e.g. "simplicityhl-lsp"
	Args        []string // extra arguments passed to the server
	ClientID    string   // e.g. "simplicityhlLspClient"
	ClientName  string   // e.g. "SimplicityHL LSP"
	DisplayName string   // used in user-facing messages
	LanguageID  string   // document language handled by the server

	StartTimeout    time.Duration // initialize handshake timeout (0 = none)
	ShutdownTimeout time.Duration // graceful shutdown timeout before kill
}

// LaunchSpec is the resolved spawn target for one client session.
type LaunchSpec struct {
	Path string
	Args []string
	Env  []string
}

// SessionInfo is a point-in-time snapshot of the supervisor.
type SessionInfo struct {
	State      SessionState `json:"state"`
	Command    string       `json:"command"`
	LanguageID string       `json:"language_id,omitempty"`
	Path       string       `json:"path,omitempty"`
	PID        int          `json:"pid,omitempty"`
	SessionID  string       `json:"session_id,omitempty"`
	ServerName string       `json:"server_name,omitempty"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	LastError  string       `json:"last_error,omitempty"`
}

// ConnectionStartError reports a server process that launched but whose
// client handshake failed.
type ConnectionStartError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ConnectionStartError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionStartError) Unwrap() error {
	return e.Err
}
