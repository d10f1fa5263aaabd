// Package notifier defines the user-interaction port: notifications, warning
// dialogs with a closed set of choices, opening external links and
// cancellable progress scopes. Editors, terminals and headless hosts provide
// adapters.
package notifier

import (
	"context"
	"errors"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
)

// ErrNotConfigured is returned by New when no UI kind is configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is the payload shown to the user.
type Notification struct {
	Message string `json:"message"`
	Level   Level  `json:"level"`
	Source  string `json:"source"` // e.g. "lsp.started", "provision.failed"
}

// ProgressFunc runs inside a progress scope. ctx is canceled when the user
// cancels the operation; report updates the visible progress message.
type ProgressFunc func(ctx context.Context, report func(message string)) error

// UI is the port through which the core talks to the user.
type UI interface {
	// Notify shows a non-blocking message.
	Notify(ctx context.Context, n Notification)

	// Ask shows a warning with the given choices and waits for the answer.
	// Closing the dialog yields provision.ChoiceDismissed.
	Ask(ctx context.Context, message string, choices ...provision.Choice) (provision.Choice, error)

	// OpenExternal opens a URL in the user's browser.
	OpenExternal(ctx context.Context, url string) error

	// WithProgress runs fn inside a visible, optionally cancellable, progress scope.
	WithProgress(ctx context.Context, title string, cancellable bool, fn ProgressFunc) error
}

// Info is shorthand for an info notification.
func Info(ctx context.Context, ui UI, source, message string) {
	ui.Notify(ctx, Notification{Message: message, Level: LevelInfo, Source: source})
}

// Warn is shorthand for a warning notification.
func Warn(ctx context.Context, ui UI, source, message string) {
	ui.Notify(ctx, Notification{Message: message, Level: LevelWarning, Source: source})
}

// Error is shorthand for an error notification.
func Error(ctx context.Context, ui UI, source, message string) {
	ui.Notify(ctx, Notification{Message: message, Level: LevelError, Source: source})
}
