// Package toolchain defines the ports for resolving executables and
// installing the language server with the package manager.
package toolchain

import (
	"context"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
)

// Locator resolves a command name to an absolute executable path.
// A missing executable yields provision.NotFound and a nil error.
type Locator interface {
	Locate(ctx context.Context, command provision.CommandName) (provision.ResolvedPath, error)
}

// Installer installs or updates the session's command. It resolves the
// session exactly once and returns the session's error.
type Installer interface {
	Install(ctx context.Context, session *provision.InstallSession) error
}
