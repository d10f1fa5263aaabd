// Package terminal implements notifier.UI for an interactive terminal:
// messages and prompts go to stderr, answers are read from stdin, and Ctrl-C
// cancels a cancellable progress scope instead of killing the process.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
	"github.com/Strob0t/lspkeeper/internal/port/notifier"
)

const providerName = "terminal"

// Opener opens a URL in the user's browser.
type Opener func(ctx context.Context, url string) error

// UI writes to out and reads answers from in.
type UI struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	width       func() int
	open        Opener

	mu sync.Mutex // serializes writes to out

	// One goroutine owns in for the UI's lifetime, so an answer typed after
	// a canceled Ask reaches the next one.
	readOnce sync.Once
	lines    chan string
}

// Option customizes a UI.
type Option func(*UI)

// WithOpener replaces the browser launcher.
func WithOpener(o Opener) Option {
	return func(u *UI) { u.open = o }
}

// New creates a UI bound to the process's stdin and stderr.
func New(opts ...Option) *UI {
	stdin := int(os.Stdin.Fd())   //nolint:gosec // fd fits in int
	stderr := int(os.Stderr.Fd()) //nolint:gosec // fd fits in int
	u := NewWithIO(os.Stdin, os.Stderr, term.IsTerminal(stdin) && term.IsTerminal(stderr), opts...)
	u.width = func() int {
		w, _, err := term.GetSize(stderr)
		if err != nil {
			return 0
		}
		return w
	}
	return u
}

// NewWithIO creates a UI on arbitrary streams. When interactive is false,
// Ask never blocks and returns provision.ChoiceDismissed.
func NewWithIO(in io.Reader, out io.Writer, interactive bool, opts ...Option) *UI {
	u := &UI{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		width:       func() int { return 0 },
		open:        openBrowser,
		lines:       make(chan string),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Notify implements notifier.UI.
func (u *UI) Notify(_ context.Context, n notifier.Notification) {
	u.printf("%s%s\n", levelPrefix(n.Level), n.Message)
}

// Ask implements notifier.UI. Choices are numbered from 1; 0, an empty
// answer or an unknown number dismisses the dialog.
func (u *UI) Ask(ctx context.Context, message string, choices ...provision.Choice) (provision.Choice, error) {
	var b strings.Builder
	b.WriteString(levelPrefix(notifier.LevelWarning))
	b.WriteString(message)
	b.WriteString("\n")
	for i, c := range choices {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, c.Label())
	}
	fmt.Fprintf(&b, "  0) %s\n", provision.ChoiceDismissed.Label())

	if !u.interactive {
		u.printf("%s", b.String())
		return provision.ChoiceDismissed, nil
	}
	u.printf("%s> ", b.String())

	u.readOnce.Do(func() { go u.readLines() })

	select {
	case <-ctx.Done():
		u.printf("\n")
		return provision.ChoiceDismissed, ctx.Err()
	case line, ok := <-u.lines:
		if !ok {
			return provision.ChoiceDismissed, nil
		}
		return pick(strings.TrimSpace(line), choices), nil
	}
}

// readLines feeds input lines to lines and closes it at EOF or on a read error.
func (u *UI) readLines() {
	defer close(u.lines)
	for {
		line, err := u.in.ReadString('\n')
		if line != "" {
			u.lines <- line
		}
		if err != nil {
			return
		}
	}
}

func pick(answer string, choices []provision.Choice) provision.Choice {
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(choices) {
		return provision.ChoiceDismissed
	}
	return choices[n-1]
}

// OpenExternal implements notifier.UI.
func (u *UI) OpenExternal(ctx context.Context, url string) error {
	u.printf("Opening %s\n", url)
	if err := u.open(ctx, url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// WithProgress implements notifier.UI. A cancellable scope is canceled by
// SIGINT; the signal is not delivered to the default handler meanwhile.
func (u *UI) WithProgress(ctx context.Context, title string, cancellable bool, fn notifier.ProgressFunc) error {
	if cancellable {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		u.printf("%s (press Ctrl-C to cancel)\n", title)
	} else {
		u.printf("%s\n", title)
	}

	var drew atomic.Bool
	err := fn(ctx, func(msg string) {
		if !u.interactive {
			u.printf("  %s\n", msg)
			return
		}
		u.printf("\r\033[K  %s", truncate(msg, u.width()-2))
		drew.Store(true)
	})
	if drew.Load() {
		u.printf("\n")
	}
	return err
}

func (u *UI) printf(format string, args ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, _ = fmt.Fprintf(u.out, format, args...)
}

func levelPrefix(l notifier.Level) string {
	switch l {
	case notifier.LevelWarning:
		return "warning: "
	case notifier.LevelError:
		return "error: "
	default:
		return ""
	}
}

// truncate shortens s to width runes; width <= 0 disables truncation.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func openBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
