// Package locator resolves executable names to absolute paths. It asks the
// platform lookup tool first (where/which) and then probes a fixed, ordered
// list of well-known installation directories. Every returned path exists on
// disk at return time.
package locator

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
)

// Runner executes a lookup command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Locator implements toolchain.Locator for the host platform.
type Locator struct {
	goos        string
	home        string
	userProfile string
	systemDirs  []string
	run         Runner
	stat        func(name string) (fs.FileInfo, error)
}

// Option customizes a Locator.
type Option func(*Locator)

// WithPlatform overrides runtime.GOOS.
func WithPlatform(goos string) Option {
	return func(l *Locator) { l.goos = goos }
}

// WithHome overrides the user's home directory.
func WithHome(dir string) Option {
	return func(l *Locator) { l.home = dir }
}

// WithUserProfile overrides %USERPROFILE% (windows only).
func WithUserProfile(dir string) Option {
	return func(l *Locator) { l.userProfile = dir }
}

// WithRunner replaces the lookup command runner.
func WithRunner(r Runner) Option {
	return func(l *Locator) { l.run = r }
}

// New creates a Locator for the current host.
func New(opts ...Option) *Locator {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Debug("locator: home directory unavailable", "error", err)
	}
	l := &Locator{
		goos:        runtime.GOOS,
		home:        home,
		userProfile: os.Getenv("USERPROFILE"),
		systemDirs:  []string{"/usr/local/bin", "/usr/bin"},
		run:         runLookup,
		stat:        os.Stat,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate returns the path of command, or provision.NotFound. Only context
// cancellation is reported as an error.
func (l *Locator) Locate(ctx context.Context, command provision.CommandName) (provision.ResolvedPath, error) {
	if err := ctx.Err(); err != nil {
		return provision.NotFound, err
	}

	if p := l.lookup(ctx, command); p.Found() {
		slog.Debug("locator: resolved via lookup tool", "command", command, "path", p)
		return p, nil
	}
	if err := ctx.Err(); err != nil {
		return provision.NotFound, err
	}

	for _, dir := range l.SearchDirs() {
		for _, name := range l.candidateNames(command) {
			candidate := filepath.Join(dir, name)
			if l.exists(candidate) {
				slog.Debug("locator: resolved via fallback directory", "command", command, "path", candidate)
				return provision.ResolvedPath(candidate), nil
			}
		}
	}

	slog.Debug("locator: not found", "command", command)
	return provision.NotFound, nil
}

// SearchDirs returns the fallback directories in probe order.
func (l *Locator) SearchDirs() []string {
	if l.windows() {
		profile := l.userProfile
		if profile == "" {
			profile = `C:\Users\Default`
		}
		return []string{filepath.Join(profile, ".cargo", "bin")}
	}

	var dirs []string
	if l.home != "" {
		dirs = append(dirs, filepath.Join(l.home, ".cargo", "bin"))
	}
	dirs = append(dirs, l.systemDirs...)
	if l.home != "" {
		dirs = append(dirs, filepath.Join(l.home, ".local", "bin"))
	}
	return dirs
}

// lookup asks where/which. A failing tool or a stale answer is not-found.
func (l *Locator) lookup(ctx context.Context, command provision.CommandName) provision.ResolvedPath {
	tool := "which"
	if l.windows() {
		tool = "where"
	}

	out, err := l.run(ctx, tool, string(command))
	if err != nil {
		return provision.NotFound
	}

	first, _, _ := strings.Cut(string(out), "\n")
	first = strings.TrimSpace(first)
	if first == "" || !l.exists(first) {
		return provision.NotFound
	}
	return provision.ResolvedPath(first)
}

func (l *Locator) candidateNames(command provision.CommandName) []string {
	name := string(command)
	if l.windows() && !strings.EqualFold(filepath.Ext(name), ".exe") {
		return []string{name, name + ".exe"}
	}
	return []string{name}
}

func (l *Locator) exists(path string) bool {
	info, err := l.stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("locator: stat failed", "path", path, "error", err)
		}
		return false
	}
	return !info.IsDir()
}

func (l *Locator) windows() bool {
	return l.goos == "windows"
}

func runLookup(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output() //nolint:gosec // fixed lookup tool
}
