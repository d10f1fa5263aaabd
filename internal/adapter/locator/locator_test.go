package locator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
)

// touch creates an empty executable file and returns its path.
func touch(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func failingRunner(context.Context, string, ...string) ([]byte, error) {
	return nil, errors.New("exit status 1")
}

func staticRunner(out string) Runner {
	return func(context.Context, string, ...string) ([]byte, error) {
		return []byte(out), nil
	}
}

// newTestLocator builds a POSIX locator whose system directories live under a temp root.
func newTestLocator(t *testing.T, run Runner) (*Locator, string, []string) {
	t.Helper()
	root := t.TempDir()
	home := filepath.Join(root, "home")
	system := []string{filepath.Join(root, "usr", "local", "bin"), filepath.Join(root, "usr", "bin")}

	l := New(WithPlatform("linux"), WithHome(home), WithRunner(run))
	l.systemDirs = system
	return l, home, system
}

func TestLocateViaLookupTool(t *testing.T) {
	bin := touch(t, t.TempDir(), "cargo")

	var gotTool, gotArg string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotTool, gotArg = name, args[0]
		return []byte(bin + "\r\n/other/cargo\n"), nil
	}
	l, _, _ := newTestLocator(t, run)

	p, err := l.Locate(context.Background(), "cargo")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if p.String() != bin {
		t.Fatalf("expected %s, got %q", bin, p)
	}
	if gotTool != "which" || gotArg != "cargo" {
		t.Errorf("expected `which cargo`, got %s %s", gotTool, gotArg)
	}
}

func TestLocateWindowsUsesWhere(t *testing.T) {
	var gotTool string
	run := func(_ context.Context, name string, _ ...string) ([]byte, error) {
		gotTool = name
		return nil, errors.New("not found")
	}
	l := New(WithPlatform("windows"), WithUserProfile(t.TempDir()), WithRunner(run))

	if _, err := l.Locate(context.Background(), "cargo"); err != nil {
		t.Fatal(err)
	}
	if gotTool != "where" {
		t.Errorf("expected where on windows, got %s", gotTool)
	}
}

func TestLocateStaleLookupFallsBack(t *testing.T) {
	l, home, _ := newTestLocator(t, staticRunner("/definitely/not/here/simplicityhl-lsp\n"))
	want := touch(t, filepath.Join(home, ".local", "bin"), "simplicityhl-lsp")

	p, err := l.Locate(context.Background(), "simplicityhl-lsp")
	if err != nil {
		t.Fatalf("stale lookup must not be an error: %v", err)
	}
	if p.String() != want {
		t.Fatalf("expected fallback %s, got %q", want, p)
	}
}

func TestLocateIgnoresDirectoryAnswer(t *testing.T) {
	dir := t.TempDir()
	l, _, _ := newTestLocator(t, staticRunner(dir))

	p, err := l.Locate(context.Background(), "simplicityhl-lsp")
	if err != nil {
		t.Fatal(err)
	}
	if p.Found() {
		t.Fatalf("a directory is not an executable, got %q", p)
	}
}

func TestLocateFallbackOrder(t *testing.T) {
	l, home, system := newTestLocator(t, failingRunner)

	cargoHome := filepath.Join(home, ".cargo", "bin")
	localBin := filepath.Join(home, ".local", "bin")

	// Present everywhere: the first declared directory wins.
	touch(t, localBin, "tool")
	touch(t, system[1], "tool")
	touch(t, system[0], "tool")
	want := touch(t, cargoHome, "tool")

	for range 5 {
		p, err := l.Locate(context.Background(), "tool")
		if err != nil {
			t.Fatal(err)
		}
		if p.String() != want {
			t.Fatalf("expected %s, got %q", want, p)
		}
	}

	if err := os.Remove(want); err != nil {
		t.Fatal(err)
	}
	p, _ := l.Locate(context.Background(), "tool")
	if p.String() != filepath.Join(system[0], "tool") {
		t.Fatalf("expected /usr/local/bin equivalent, got %q", p)
	}
}

func TestLocateNotFound(t *testing.T) {
	l, _, _ := newTestLocator(t, failingRunner)

	p, err := l.Locate(context.Background(), "simplicityhl-lsp")
	if err != nil {
		t.Fatalf("not-found must not be an error: %v", err)
	}
	if p != provision.NotFound {
		t.Fatalf("expected NotFound, got %q", p)
	}
}

func TestLocateNeverReturnsMissingPath(t *testing.T) {
	l, home, _ := newTestLocator(t, failingRunner)
	p := touch(t, filepath.Join(home, ".cargo", "bin"), "simplicityhl-lsp")

	got, _ := l.Locate(context.Background(), "simplicityhl-lsp")
	if got.String() != p {
		t.Fatalf("expected %s, got %q", p, got)
	}

	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	got, _ = l.Locate(context.Background(), "simplicityhl-lsp")
	if got.Found() {
		t.Fatalf("removed file must not be returned, got %q", got)
	}
}

func TestLocateCanceledContext(t *testing.T) {
	l, _, _ := newTestLocator(t, failingRunner)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.Locate(ctx, "cargo"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSearchDirsPosix(t *testing.T) {
	l := New(WithPlatform("darwin"), WithHome("/home/dev"), WithRunner(failingRunner))

	want := []string{
		filepath.Join("/home/dev", ".cargo", "bin"),
		"/usr/local/bin",
		"/usr/bin",
		filepath.Join("/home/dev", ".local", "bin"),
	}
	got := l.SearchDirs()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dir %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSearchDirsWithoutHome(t *testing.T) {
	l := New(WithPlatform("linux"), WithHome(""), WithRunner(failingRunner))
	got := l.SearchDirs()
	if len(got) != 2 || got[0] != "/usr/local/bin" || got[1] != "/usr/bin" {
		t.Fatalf("expected only system dirs, got %v", got)
	}
}

func TestSearchDirsWindowsDefaultProfile(t *testing.T) {
	l := New(WithPlatform("windows"), WithUserProfile(""), WithRunner(failingRunner))
	got := l.SearchDirs()
	want := filepath.Join(`C:\Users\Default`, ".cargo", "bin")
	if len(got) != 1 || got[0] != want {
		t.Fatalf("expected [%s], got %v", want, got)
	}
}

func TestLocateWindowsExeSuffix(t *testing.T) {
	profile := t.TempDir()
	want := touch(t, filepath.Join(profile, ".cargo", "bin"), "simplicityhl-lsp.exe")
	l := New(WithPlatform("windows"), WithUserProfile(profile), WithRunner(failingRunner))

	p, err := l.Locate(context.Background(), "simplicityhl-lsp")
	if err != nil {
		t.Fatal(err)
	}
	if p.String() != want {
		t.Fatalf("expected %s, got %q", want, p)
	}
}
