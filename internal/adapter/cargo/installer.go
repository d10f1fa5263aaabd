// Package cargo installs and updates the language server with `cargo install`,
// turning the compiler's unstructured stderr into progress milestones and
// terminating the build when the user cancels.
package cargo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Strob0t/lspkeeper/internal/adapter/lineio"
	"github.com/Strob0t/lspkeeper/internal/domain/provision"
	"github.com/Strob0t/lspkeeper/internal/logger"
	"github.com/Strob0t/lspkeeper/internal/port/toolchain"
)

// DefaultMarkers are the stderr prefixes reported as progress.
var DefaultMarkers = []string{"Compiling"}

// waitDelay bounds how long Wait blocks on pipes held open by grandchildren
// after cargo itself has exited.
const waitDelay = 5 * time.Second

// Process is a started package-manager run.
type Process interface {
	Wait() error
	Terminate() error
	Pid() int
}

// Starter launches program with args, streaming its stderr into w.
type Starter func(ctx context.Context, program string, args []string, stderr io.Writer) (Process, error)

// Installer implements toolchain.Installer on top of cargo.
type Installer struct {
	toolchain provision.CommandName
	locator   toolchain.Locator
	markers   []string
	start     Starter
	gate      *gate
}

// Option customizes an Installer.
type Option func(*Installer)

// WithMarkers replaces the progress milestone prefixes.
func WithMarkers(markers []string) Option {
	return func(i *Installer) {
		if len(markers) > 0 {
			i.markers = markers
		}
	}
}

// WithStarter replaces process creation.
func WithStarter(s Starter) Option {
	return func(i *Installer) { i.start = s }
}

// NewInstaller creates an Installer that resolves the toolchain executable
// (e.g. "cargo") through locator before every run.
func NewInstaller(tool provision.CommandName, locator toolchain.Locator, opts ...Option) *Installer {
	i := &Installer{
		toolchain: tool,
		locator:   locator,
		markers:   DefaultMarkers,
		start:     execStart,
		gate:      newGate(1),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Args returns the package-manager arguments installing command.
func Args(command provision.CommandName) []string {
	return []string{"install", "--color", "never", string(command)}
}

// Install runs `cargo install` for the session's command, waiting for any
// install already in flight. Process exit, context cancellation and spawn
// failure all resolve the session; the first one wins. Canceling ctx
// terminates the process.
func (i *Installer) Install(ctx context.Context, s *provision.InstallSession) error {
	ctx = logger.WithSessionID(ctx, s.ID)
	err := i.gate.run(ctx, func() error { return i.install(ctx, s) })
	if err != nil && !s.Resolved() {
		s.Resolve(fmt.Errorf("%w: %v", provision.ErrInstallCanceled, err))
	}
	return s.Err()
}

func (i *Installer) install(ctx context.Context, s *provision.InstallSession) error {
	log := logger.From(ctx)

	program, err := i.locator.Locate(ctx, i.toolchain)
	if err != nil {
		s.Resolve(fmt.Errorf("%w: %v", provision.ErrInstallCanceled, err))
		return s.Err()
	}
	if !program.Found() {
		s.Resolve(fmt.Errorf("%w: unable to find %q, ensure it is installed and on PATH", provision.ErrToolchainMissing, i.toolchain))
		return s.Err()
	}

	stderr := lineio.NewWriter(func(line string) {
		if msg, ok := Milestone(line, i.markers); ok {
			s.Report(msg)
			return
		}
		if line = strings.TrimSpace(line); line != "" {
			log.Debug("cargo output", "line", line)
		}
	})

	args := Args(s.Command)
	proc, err := i.start(ctx, program.String(), args, stderr)
	if err != nil {
		s.Resolve(&provision.SpawnError{Program: string(i.toolchain), Err: err})
		return s.Err()
	}
	log.Info("install started", "program", program, "args", args, "pid", proc.Pid())

	exited := make(chan error, 1)
	go func() {
		err := proc.Wait()
		stderr.Flush()
		exited <- err
	}()

	select {
	case err := <-exited:
		s.Resolve(exitResult(err))
	case <-ctx.Done():
		if err := proc.Terminate(); err != nil {
			log.Warn("terminate install process", "pid", proc.Pid(), "error", err)
		}
		s.Resolve(provision.ErrInstallCanceled)
	}

	log.Info("install finished", "outcome", s.Outcome().String())
	return s.Err()
}

// Milestone reports whether line is a progress milestone: it starts with one
// of markers and carries a payload beyond the bare marker.
func Milestone(line string, markers []string) (string, bool) {
	line = strings.TrimSpace(line)
	for _, m := range markers {
		if m != "" && line != m && strings.HasPrefix(line, m) {
			return line, true
		}
	}
	return "", false
}

func exitResult(err error) error {
	if err == nil {
		return nil
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return &provision.InstallFailedError{ExitCode: coded.ExitCode()}
	}
	return fmt.Errorf("wait for install: %w", err)
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Wait() error      { return p.cmd.Wait() }
func (p *execProcess) Terminate() error { return terminate(p.cmd.Process) }
func (p *execProcess) Pid() int         { return p.cmd.Process.Pid }

// execStart does not bind the process to ctx: cancellation is handled by
// Install so the build receives SIGTERM rather than SIGKILL.
func execStart(_ context.Context, program string, args []string, stderr io.Writer) (Process, error) {
	cmd := exec.Command(program, args...) //nolint:gosec // program resolved by the locator
	cmd.Env = os.Environ()
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	slog.Debug("cargo process spawned", "pid", cmd.Process.Pid)
	return &execProcess{cmd: cmd}, nil
}
