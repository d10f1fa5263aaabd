package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	lkotel "github.com/Strob0t/lspkeeper/internal/adapter/otel"
	"github.com/Strob0t/lspkeeper/internal/adapter/ws"
	"github.com/Strob0t/lspkeeper/internal/domain"
	lspDomain "github.com/Strob0t/lspkeeper/internal/domain/lsp"
	"github.com/Strob0t/lspkeeper/internal/domain/provision"
	"github.com/Strob0t/lspkeeper/internal/logger"
	"github.com/Strob0t/lspkeeper/internal/port/broadcast"
	"github.com/Strob0t/lspkeeper/internal/port/langserver"
	"github.com/Strob0t/lspkeeper/internal/port/notifier"
)

// Ensurer provides a server executable path, provisioning it if needed.
type Ensurer interface {
	Ensure(ctx context.Context, command provision.CommandName) (provision.ResolvedPath, error)
}

// Supervisor owns the single language client session and moves it through
// Uninitialized -> Running -> Stopped. Lifecycle operations are serialized;
// snapshots (State, Info) never wait for an in-flight operation.
type Supervisor struct {
	cfg       lspDomain.ServerConfig
	ensurer   Ensurer
	connector langserver.Connector
	ui        notifier.UI
	hub       broadcast.Broadcaster
	metrics   *lkotel.Metrics
	environ   func() []string

	opMu sync.Mutex // serializes Start/Stop/Restart

	mu        sync.RWMutex // guards the fields below
	state     lspDomain.SessionState
	session   langserver.Session
	path      provision.ResolvedPath
	startedAt time.Time
	lastErr   string
}

// NewSupervisor creates a supervisor in the Uninitialized state.
func NewSupervisor(
	cfg lspDomain.ServerConfig,
	ensurer Ensurer,
	connector langserver.Connector,
	ui notifier.UI,
	hub broadcast.Broadcaster,
) *Supervisor {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &Supervisor{
		cfg:       cfg,
		ensurer:   ensurer,
		connector: connector,
		ui:        ui,
		hub:       hub,
		environ:   os.Environ,
		state:     lspDomain.StateUninitialized,
	}
}

// SetMetrics sets the metric instruments (optional).
func (s *Supervisor) SetMetrics(m *lkotel.Metrics) { s.metrics = m }

// State returns the current lifecycle state.
func (s *Supervisor) State() lspDomain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Info returns a status snapshot.
func (s *Supervisor) Info() lspDomain.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := lspDomain.SessionInfo{
		State:      s.state,
		Command:    s.cfg.Command,
		LanguageID: s.cfg.LanguageID,
		Path:       s.path.String(),
		LastError:  s.lastErr,
	}
	if s.session != nil {
		info.PID = s.session.PID()
		info.SessionID = s.session.ID()
		info.ServerName = s.session.ServerName()
		started := s.startedAt
		info.StartedAt = &started
	}
	return info
}

// Start provisions the server and connects a client. It is a no-op while
// Running. When no executable is available the state is left unchanged and
// nil is returned. A failed connection is reported to the user, leaves the
// supervisor Stopped and is returned.
func (s *Supervisor) Start(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.start(ctx)
}

func (s *Supervisor) start(ctx context.Context) (err error) {
	if s.State() == lspDomain.StateRunning {
		return nil
	}

	ctx, span := lkotel.StartLifecycleSpan(ctx, "start", s.cfg.Command)
	defer func() { lkotel.EndSpan(span, err) }()
	log := logger.From(ctx).With("command", s.cfg.Command)

	path, err := s.ensurer.Ensure(ctx, provision.CommandName(s.cfg.Command))
	if err != nil {
		return err
	}
	if !path.Found() {
		log.Info("language server unavailable, client not started")
		return nil
	}

	sess, err := s.connector.Connect(ctx, lspDomain.LaunchSpec{
		Path: path.String(),
		Args: s.cfg.Args,
		Env:  s.environ(),
	})
	if err != nil {
		s.mu.Lock()
		s.state = lspDomain.StateStopped
		s.session = nil
		s.path = path
		s.lastErr = err.Error()
		s.mu.Unlock()

		log.Error("language client failed to start", "path", path, "error", err)
		s.metrics.ClientStarted(ctx, false)
		notifier.Error(ctx, s.ui, "lsp.start_failed",
			fmt.Sprintf("Failed to start %s Language Server: %v", s.cfg.DisplayName, err))
		s.broadcastStatus(ctx)
		return err
	}

	s.mu.Lock()
	s.state = lspDomain.StateRunning
	s.session = sess
	s.path = path
	s.startedAt = time.Now()
	s.lastErr = ""
	s.mu.Unlock()

	go s.watch(context.WithoutCancel(ctx), sess)

	log.Info("language client started", "path", path, "pid", sess.PID(), "session_id", sess.ID())
	s.metrics.ClientStarted(ctx, true)
	notifier.Info(ctx, s.ui, "lsp.started", fmt.Sprintf("%s Language Server activated!", s.cfg.DisplayName))
	s.broadcastStatus(ctx)
	return nil
}

// watch moves the supervisor to Stopped when the server exits on its own.
func (s *Supervisor) watch(ctx context.Context, sess langserver.Session) {
	<-sess.Done()

	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		return
	}
	s.state = lspDomain.StateStopped
	s.session = nil
	s.lastErr = "server process exited"
	s.mu.Unlock()

	logger.From(ctx).Warn("language server exited unexpectedly", "command", s.cfg.Command, "session_id", sess.ID())
	notifier.Warn(ctx, s.ui, "lsp.exited", fmt.Sprintf("%s Language Server exited unexpectedly", s.cfg.DisplayName))
	s.broadcastStatus(ctx)
}

// Stop shuts down the running session. It is a no-op unless Running.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.stop(ctx)
}

func (s *Supervisor) stop(ctx context.Context) (err error) {
	s.mu.Lock()
	if s.state != lspDomain.StateRunning {
		s.mu.Unlock()
		return nil
	}
	sess := s.session
	s.session = nil
	s.state = lspDomain.StateStopped
	s.mu.Unlock()

	ctx, span := lkotel.StartLifecycleSpan(ctx, "stop", s.cfg.Command)
	defer func() { lkotel.EndSpan(span, err) }()

	if err := sess.Stop(ctx); err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.broadcastStatus(ctx)
		return fmt.Errorf("stop language client: %w", err)
	}

	logger.From(ctx).Info("language client stopped", "command", s.cfg.Command, "session_id", sess.ID())
	s.broadcastStatus(ctx)
	return nil
}

// Restart stops and starts the client. It is rejected with a warning and
// domain.ErrNotInitialized when no start was ever attempted. Failures of
// either phase are reported to the user and not returned.
func (s *Supervisor) Restart(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.State() == lspDomain.StateUninitialized {
		notifier.Warn(ctx, s.ui, "lsp.restart_rejected", "LSP client not initialized. Cannot restart.")
		return domain.ErrNotInitialized
	}

	ctx, span := lkotel.StartLifecycleSpan(ctx, "restart", s.cfg.Command)
	defer span.End()
	log := logger.From(ctx).With("command", s.cfg.Command)

	if err := s.stop(ctx); err != nil {
		log.Error("restart failed", "phase", "stop", "error", err)
		s.metrics.Restarted(ctx, false)
		notifier.Error(ctx, s.ui, "lsp.restart_failed", fmt.Sprintf("Failed to restart LSP: %v", err))
		return nil
	}
	if err := s.start(ctx); err != nil {
		// start has already reported connection failures.
		log.Error("restart failed", "phase", "start", "error", err)
		s.metrics.Restarted(ctx, false)
		if ctx.Err() != nil {
			notifier.Error(ctx, s.ui, "lsp.restart_failed", fmt.Sprintf("Failed to restart LSP: %v", err))
		}
		return nil
	}

	if s.State() != lspDomain.StateRunning {
		log.Info("restart finished without a running client")
		s.metrics.Restarted(ctx, false)
		return nil
	}
	s.metrics.Restarted(ctx, true)
	notifier.Info(ctx, s.ui, "lsp.restarted", fmt.Sprintf("%s Language Server restarted successfully!", s.cfg.DisplayName))
	return nil
}

// StatusEvent converts a snapshot into its broadcast payload.
func StatusEvent(info lspDomain.SessionInfo) ws.LSPStatusEvent {
	return ws.LSPStatusEvent{
		State:      string(info.State),
		Command:    info.Command,
		LanguageID: info.LanguageID,
		Path:       info.Path,
		PID:        info.PID,
		SessionID:  info.SessionID,
		Error:      info.LastError,
	}
}

func (s *Supervisor) broadcastStatus(ctx context.Context) {
	s.hub.BroadcastEvent(ctx, ws.EventLSPStatus, StatusEvent(s.Info()))
}
