// Package logui implements a headless notifier.UI that records every
// interaction in the structured log. Dialogs are answered with
// provision.ChoiceDismissed and progress scopes cannot be canceled by a user.
package logui

import (
	"context"
	"log/slog"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
	"github.com/Strob0t/lspkeeper/internal/port/notifier"
)

const providerName = "log"

// UI logs through the wrapped logger.
type UI struct {
	log *slog.Logger
}

// New creates a UI; a nil logger uses slog.Default().
func New(l *slog.Logger) *UI {
	if l == nil {
		l = slog.Default()
	}
	return &UI{log: l.With("component", "ui")}
}

// Notify implements notifier.UI.
func (u *UI) Notify(ctx context.Context, n notifier.Notification) {
	u.log.Log(ctx, level(n.Level), n.Message, "source", n.Source)
}

// Ask implements notifier.UI.
func (u *UI) Ask(ctx context.Context, message string, choices ...provision.Choice) (provision.Choice, error) {
	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = c.Label()
	}
	u.log.WarnContext(ctx, message, "choices", labels, "answer", provision.ChoiceDismissed.String())
	return provision.ChoiceDismissed, nil
}

// OpenExternal implements notifier.UI.
func (u *UI) OpenExternal(ctx context.Context, url string) error {
	u.log.InfoContext(ctx, "open external link", "url", url)
	return nil
}

// WithProgress implements notifier.UI.
func (u *UI) WithProgress(ctx context.Context, title string, _ bool, fn notifier.ProgressFunc) error {
	u.log.InfoContext(ctx, "progress started", "title", title)
	err := fn(ctx, func(msg string) {
		u.log.InfoContext(ctx, "progress", "title", title, "message", msg)
	})
	if err != nil {
		u.log.InfoContext(ctx, "progress finished", "title", title, "error", err)
		return err
	}
	u.log.InfoContext(ctx, "progress finished", "title", title)
	return nil
}

func level(l notifier.Level) slog.Level {
	switch l {
	case notifier.LevelWarning:
		return slog.LevelWarn
	case notifier.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
