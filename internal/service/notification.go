package service

import (
	"context"
	"log/slog"

	"github.com/Strob0t/lspkeeper/internal/adapter/ws"
	"github.com/Strob0t/lspkeeper/internal/port/broadcast"
	"github.com/Strob0t/lspkeeper/internal/port/notifier"
)

// NotificationService is a notifier.UI that shows every notification on the
// wrapped UI and mirrors it to live-event observers. Dialogs, links and
// progress scopes pass straight through.
type NotificationService struct {
	notifier.UI
	hub            broadcast.Broadcaster
	mirroredEvents map[string]bool
}

// NewNotificationService wraps ui. mirroredSources limits which notification
// sources (e.g. "lsp.started", "provision.failed") are broadcast; nil or
// empty mirrors all of them.
func NewNotificationService(ui notifier.UI, hub broadcast.Broadcaster, mirroredSources []string) *NotificationService {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	mirrored := make(map[string]bool, len(mirroredSources))
	for _, s := range mirroredSources {
		mirrored[s] = true
	}
	return &NotificationService{UI: ui, hub: hub, mirroredEvents: mirrored}
}

// Notify shows n and broadcasts it.
func (s *NotificationService) Notify(ctx context.Context, n notifier.Notification) {
	s.UI.Notify(ctx, n)

	if len(s.mirroredEvents) > 0 && !s.mirroredEvents[n.Source] {
		return
	}
	s.hub.BroadcastEvent(ctx, ws.EventNotification, ws.NotificationEvent{
		Level:   string(n.Level),
		Source:  n.Source,
		Message: n.Message,
	})
	slog.Debug("notification mirrored", "source", n.Source, "level", n.Level)
}
