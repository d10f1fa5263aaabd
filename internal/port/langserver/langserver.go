// Package langserver defines the port for one client connection to a
// language server process.
package langserver

import (
	"context"

	"github.com/Strob0t/lspkeeper/internal/domain/lsp"
)

// Session is a started client connection.
type Session interface {
	// ID is a unique identifier for this connection.
	ID() string
	// PID is the server process id, or 0.
	PID() int
	// ServerName is the name the server reported during initialize, if any.
	ServerName() string
	// Done is closed once the server process has exited.
	Done() <-chan struct{}
	// Stop shuts the server down and releases the process.
	Stop(ctx context.Context) error
}

// Connector spawns a server process and performs the client handshake.
// On error no process is left running.
type Connector interface {
	Connect(ctx context.Context, spec lsp.LaunchSpec) (Session, error)
}
