// Package broadcast defines the port for pushing lifecycle and provisioning
// events to connected observers (editor front-ends, dashboards).
package broadcast

import "context"

// Broadcaster sends real-time events to all connected observers.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected observers.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Nop discards every event.
type Nop struct{}

// BroadcastEvent implements Broadcaster.
func (Nop) BroadcastEvent(context.Context, string, any) {}
