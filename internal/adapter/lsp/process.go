package lsp

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Strob0t/lspkeeper/internal/adapter/lineio"
	lspDomain "github.com/Strob0t/lspkeeper/internal/domain/lsp"
)

// waitDelay bounds how long Wait blocks on a stderr pipe held open by
// grandchildren after the server has exited.
const waitDelay = 5 * time.Second

type execProcess struct {
	cmd    *exec.Cmd
	stderr *lineio.Writer
}

func (p *execProcess) Pid() int    { return p.cmd.Process.Pid }
func (p *execProcess) Kill() error { return p.cmd.Process.Kill() }

// Wait waits for the server to exit, then logs any unterminated last line of
// its stderr.
func (p *execProcess) Wait() error {
	err := p.cmd.Wait()
	p.stderr.Flush()
	return err
}

// execSpawn starts the server with piped stdin/stdout. Server stderr is
// forwarded to the debug log line by line.
func execSpawn(_ context.Context, spec lspDomain.LaunchSpec) (Process, io.ReadWriteCloser, error) {
	cmd := exec.Command(spec.Path, spec.Args...) //nolint:gosec // path resolved by the locator
	cmd.Env = spec.Env
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.WaitDelay = waitDelay
	stderr := stderrLog(spec.Path)
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return &execProcess{cmd: cmd, stderr: stderr}, stdioPipe{stdin: stdin, stdout: stdout}, nil
}

// stderrLog logs each non-blank line the server writes to stderr.
func stderrLog(path string) *lineio.Writer {
	return lineio.NewWriter(func(line string) {
		if line = strings.TrimSpace(line); line != "" {
			slog.Debug("lsp server stderr", "path", path, "line", line)
		}
	})
}

// stdioPipe combines a stdin (writer) and stdout (reader) into an io.ReadWriteCloser.
type stdioPipe struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p stdioPipe) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p stdioPipe) Write(b []byte) (int, error) { return p.stdin.Write(b) }
func (p stdioPipe) Close() error {
	_ = p.stdin.Close()
	return p.stdout.Close()
}
