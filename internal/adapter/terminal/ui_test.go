package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
	"github.com/Strob0t/lspkeeper/internal/port/notifier"
)

var _ notifier.UI = (*UI)(nil)

func TestNotifyPrefixes(t *testing.T) {
	var out bytes.Buffer
	u := NewWithIO(strings.NewReader(""), &out, false)
	ctx := context.Background()

	notifier.Info(ctx, u, "test", "activated")
	notifier.Warn(ctx, u, "test", "careful")
	notifier.Error(ctx, u, "test", "broken")

	want := "activated\nwarning: careful\nerror: broken\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestAskInteractive(t *testing.T) {
	choices := []provision.Choice{provision.ChoiceLearnMore, provision.ChoiceDontShowAgain}
	tests := []struct {
		input string
		want  provision.Choice
	}{
		{"1\n", provision.ChoiceLearnMore},
		{"2\n", provision.ChoiceDontShowAgain},
		{" 2 \r\n", provision.ChoiceDontShowAgain},
		{"0\n", provision.ChoiceDismissed},
		{"9\n", provision.ChoiceDismissed},
		{"yes\n", provision.ChoiceDismissed},
		{"", provision.ChoiceDismissed},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		u := NewWithIO(strings.NewReader(tt.input), &out, true)
		got, err := u.Ask(context.Background(), "install cargo", choices...)
		if err != nil {
			t.Fatalf("Ask(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Ask(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "1) Learn more") || !strings.Contains(out.String(), "2) Don't show again") {
			t.Errorf("choices not rendered: %q", out.String())
		}
	}
}

func TestAskNonInteractiveDismisses(t *testing.T) {
	var out bytes.Buffer
	u := NewWithIO(strings.NewReader("1\n"), &out, false)

	got, err := u.Ask(context.Background(), "install cargo", provision.ChoiceLearnMore)
	if err != nil {
		t.Fatal(err)
	}
	if got != provision.ChoiceDismissed {
		t.Errorf("got %v, want dismissed", got)
	}
}

func TestAskCanceled(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()

	u := NewWithIO(r, io.Discard, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := u.Ask(ctx, "install cargo", provision.ChoiceLearnMore)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got != provision.ChoiceDismissed {
		t.Errorf("got %v", got)
	}
}

func TestAskAfterCanceledAskGetsNextAnswer(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()

	u := NewWithIO(r, io.Discard, true)
	choices := []provision.Choice{provision.ChoiceLearnMore, provision.ChoiceDontShowAgain}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := u.Ask(ctx, "install cargo", choices...); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("first Ask: expected deadline exceeded, got %v", err)
	}

	type answer struct {
		choice provision.Choice
		err    error
	}
	done := make(chan answer, 1)
	go func() {
		c, err := u.Ask(context.Background(), "install cargo", choices...)
		done <- answer{c, err}
	}()
	if _, err := io.WriteString(w, "2\n"); err != nil {
		t.Fatal(err)
	}

	select {
	case a := <-done:
		if a.err != nil {
			t.Fatalf("second Ask: %v", a.err)
		}
		if a.choice != provision.ChoiceDontShowAgain {
			t.Errorf("second Ask = %v, want %v", a.choice, provision.ChoiceDontShowAgain)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("answer consumed by the canceled Ask")
	}
}

func TestOpenExternalUsesOpener(t *testing.T) {
	var opened string
	u := NewWithIO(strings.NewReader(""), io.Discard, false, WithOpener(func(_ context.Context, url string) error {
		opened = url
		return nil
	}))

	if err := u.OpenExternal(context.Background(), "https://rust-lang.org/tools/install"); err != nil {
		t.Fatal(err)
	}
	if opened != "https://rust-lang.org/tools/install" {
		t.Errorf("opened %q", opened)
	}
}

func TestWithProgressReportsAndReturnsError(t *testing.T) {
	var out bytes.Buffer
	u := NewWithIO(strings.NewReader(""), &out, false)
	boom := errors.New("boom")

	err := u.WithProgress(context.Background(), "Installing simplicityhl-lsp", true, func(_ context.Context, report func(string)) error {
		report("Compiling a v1")
		report("Compiling b v2")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	got := out.String()
	for _, want := range []string{"Installing simplicityhl-lsp (press Ctrl-C to cancel)", "  Compiling a v1\n", "  Compiling b v2\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Compiling foo", 0, "Compiling foo"},
		{"Compiling foo", 20, "Compiling foo"},
		{"Compiling foo", 6, "Compi…"},
		{"abc", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
