package service

import (
	"context"
	"sync"

	"github.com/Strob0t/lspkeeper/internal/adapter/ws"
	"github.com/Strob0t/lspkeeper/internal/port/broadcast"
)

// progressQueue is the number of undelivered progress frames held per
// install. Frames published while it is full are dropped.
const progressQueue = 64

// progressFeed hands install progress frames to the hub on its own
// goroutine, keeping the installer's output path free of observer writes.
type progressFeed struct {
	hub    broadcast.Broadcaster
	frames chan ws.ProvisionProgressEvent
	done   chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

func newProgressFeed(ctx context.Context, hub broadcast.Broadcaster) *progressFeed {
	f := &progressFeed{
		hub:    hub,
		frames: make(chan ws.ProvisionProgressEvent, progressQueue),
		done:   make(chan struct{}),
	}
	go f.run(context.WithoutCancel(ctx))
	return f
}

func (f *progressFeed) run(ctx context.Context) {
	defer close(f.done)
	for ev := range f.frames {
		f.hub.BroadcastEvent(ctx, ws.EventProvisionProgress, ev)
	}
}

// publish queues ev without blocking.
func (f *progressFeed) publish(ev ws.ProvisionProgressEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.frames <- ev:
	default:
		f.dropped++
	}
}

// close stops accepting frames, waits until the queued ones are delivered
// and returns the number dropped.
func (f *progressFeed) close() int {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.frames)
	}
	dropped := f.dropped
	f.mu.Unlock()

	<-f.done
	return dropped
}
