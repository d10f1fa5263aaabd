package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventLSPStatus         = "lsp.status"
	EventProvisionProgress = "provision.progress"
	EventNotification      = "ui.notification"
)

// LSPStatusEvent is broadcast when the supervised client changes state.
type LSPStatusEvent struct {
	State      string `json:"state"`
	Command    string `json:"command"`
	LanguageID string `json:"language_id,omitempty"`
	Path       string `json:"path,omitempty"`
	PID        int    `json:"pid,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ProvisionProgressEvent is broadcast for every install milestone and once
// more when the install session resolves.
type ProvisionProgressEvent struct {
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
	Action    string `json:"action"`            // "Installing" or "Updating"
	Message   string `json:"message,omitempty"` // e.g. "Compiling serde v1.0.200"
	Outcome   string `json:"outcome"`           // "pending" until resolved
}

// NotificationEvent mirrors a message shown to the user.
type NotificationEvent struct {
	Level   string `json:"level"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}
	h.Broadcast(ctx, msg)
}

// NewMessage builds an envelope for payload.
func NewMessage(eventType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: eventType, Payload: json.RawMessage(data)}, nil
}
