package lsp

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"testing"

	lspDomain "github.com/Strob0t/lspkeeper/internal/domain/lsp"
)

// syncBuffer guards a bytes.Buffer written by the exec copy goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestExecSpawnLogsUnterminatedStderrLine(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	var logs syncBuffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	proc, rwc, err := execSpawn(context.Background(), lspDomain.LaunchSpec{
		Path: sh,
		Args: []string{"-c", `printf 'first line\n\npanicked at main.rs' >&2`},
	})
	if err != nil {
		t.Fatalf("execSpawn: %v", err)
	}
	defer func() { _ = rwc.Close() }()

	if err := proc.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	out := logs.String()
	for _, want := range []string{`"line":"first line"`, `"line":"panicked at main.rs"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "lsp server stderr"); n != 2 {
		t.Errorf("logged %d stderr lines, want 2 (blank lines skipped)", n)
	}
}
