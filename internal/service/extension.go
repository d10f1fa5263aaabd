package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Strob0t/lspkeeper/internal/domain"
)

// CommandHandler runs a user-invokable command.
type CommandHandler func(ctx context.Context) error

// Extension is the host integration context. It owns one Supervisor, starts
// it on Activate, stops it on Deactivate and exposes the command table that
// editors, the CLI and the control API dispatch into.
type Extension struct {
	sup      *Supervisor
	commands map[string]CommandHandler

	mu       sync.Mutex
	active   bool
	cancel   context.CancelFunc
	starting sync.WaitGroup
}

// RestartCommandID returns the id of the restart command in namespace,
// e.g. "simplicityhl.restartServer".
func RestartCommandID(namespace string) string {
	return namespace + ".restartServer"
}

// NewExtension creates an inactive extension whose commands live under namespace.
func NewExtension(namespace string, sup *Supervisor) *Extension {
	e := &Extension{sup: sup}
	e.commands = map[string]CommandHandler{
		RestartCommandID(namespace): sup.Restart,
	}
	return e
}

// Supervisor returns the owned supervisor.
func (e *Extension) Supervisor() *Supervisor { return e.sup }

// Activate starts the supervisor in the background and returns immediately.
// The background start is canceled by Deactivate. Activating twice is a no-op.
func (e *Extension) Activate(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return
	}
	e.active = true

	startCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.cancel = cancel
	e.starting.Add(1)
	go func() {
		defer e.starting.Done()
		if err := e.sup.Start(startCtx); err != nil {
			slog.Warn("activation start failed", "error", err)
		}
	}()
	slog.Info("extension activated", "commands", e.Commands())
}

// Deactivate cancels a pending start, waits for it and stops the supervisor.
func (e *Extension) Deactivate(ctx context.Context) error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil
	}
	e.active = false
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	cancel()
	e.starting.Wait()

	if err := e.sup.Stop(ctx); err != nil {
		return fmt.Errorf("deactivate: %w", err)
	}
	slog.Info("extension deactivated")
	return nil
}

// Execute runs the command registered under id.
func (e *Extension) Execute(ctx context.Context, id string) error {
	handler, ok := e.commands[id]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCommand, id)
	}
	return handler(ctx)
}

// Commands returns the sorted registered command ids.
func (e *Extension) Commands() []string {
	ids := make([]string, 0, len(e.commands))
	for id := range e.commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
