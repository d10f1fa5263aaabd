package provision

import (
	"errors"
	"fmt"
)

// ErrToolchainMissing indicates the package manager used to install the
// server could not be resolved on this machine.
var ErrToolchainMissing = errors.New("toolchain not found")

// ErrInstallCanceled indicates the user canceled an in-flight install.
var ErrInstallCanceled = errors.New("installation canceled")

// InstallFailedError reports a package-manager run that exited non-zero.
type InstallFailedError struct {
	ExitCode int
}

// Error implements the error interface.
func (e *InstallFailedError) Error() string {
	return fmt.Sprintf("installation failed with exit code %d", e.ExitCode)
}

// SpawnError reports a process that could not be launched at the OS level.
type SpawnError struct {
	Program string
	Err     error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s process: %v", e.Program, e.Err)
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}
