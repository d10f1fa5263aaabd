// Package lsp provides the language client connection: it spawns a server
// process and speaks JSON-RPC 2.0 with it over stdio.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	lspDomain "github.com/Strob0t/lspkeeper/internal/domain/lsp"
	"github.com/Strob0t/lspkeeper/internal/port/langserver"
)

// Process is a running server process.
type Process interface {
	Pid() int
	Wait() error
	Kill() error
}

// Spawner starts the server described by spec and returns its stdio stream.
type Spawner func(ctx context.Context, spec lspDomain.LaunchSpec) (Process, io.ReadWriteCloser, error)

// MessageFunc receives window/showMessage notifications from the server.
type MessageFunc func(typ protocol.MessageType, message string)

// Connector implements langserver.Connector.
type Connector struct {
	cfg       lspDomain.ServerConfig
	version   string
	spawn     Spawner
	zap       *zap.Logger
	onMessage MessageFunc
}

// Option customizes a Connector.
type Option func(*Connector)

// WithSpawner replaces process creation.
func WithSpawner(s Spawner) Option {
	return func(c *Connector) { c.spawn = s }
}

// WithZapLogger sets the logger used by the protocol dispatcher.
func WithZapLogger(l *zap.Logger) Option {
	return func(c *Connector) {
		if l != nil {
			c.zap = l
		}
	}
}

// WithMessageHandler forwards server window/showMessage notifications.
func WithMessageHandler(fn MessageFunc) Option {
	return func(c *Connector) { c.onMessage = fn }
}

// WithClientVersion sets the version reported in clientInfo.
func WithClientVersion(v string) Option {
	return func(c *Connector) { c.version = v }
}

// NewConnector creates a Connector for the configured server.
func NewConnector(cfg lspDomain.ServerConfig, opts ...Option) *Connector {
	c := &Connector{
		cfg:   cfg,
		spawn: execSpawn,
		zap:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect spawns the server and performs the initialize handshake. If the
// handshake fails the process is killed before returning.
func (c *Connector) Connect(ctx context.Context, spec lspDomain.LaunchSpec) (langserver.Session, error) {
	proc, rwc, err := c.spawn(ctx, spec)
	if err != nil {
		return nil, &lspDomain.ConnectionStartError{Path: spec.Path, Err: fmt.Errorf("start process: %w", err)}
	}

	s := &session{
		id:              uuid.NewString(),
		proc:            proc,
		shutdownTimeout: c.cfg.ShutdownTimeout,
		exited:          make(chan struct{}),
	}
	go s.wait()

	s.conn = jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	s.conn.Go(context.WithoutCancel(ctx), c.handler())
	s.server = protocol.ServerDispatcher(s.conn, c.zap)

	initCtx, cancel := s.untilExit(ctx, c.cfg.StartTimeout)
	defer cancel()

	if err := c.initialize(initCtx, s); err != nil {
		if errors.Is(context.Cause(initCtx), errServerExited) {
			err = fmt.Errorf("%w during initialize", errServerExited)
		}
		s.kill()
		return nil, &lspDomain.ConnectionStartError{Path: spec.Path, Err: err}
	}

	slog.Info("lsp server started",
		"client", c.cfg.ClientID, "language_id", c.cfg.LanguageID, "path", spec.Path,
		"pid", proc.Pid(), "session_id", s.id, "server_name", s.name)
	return s, nil
}

func (c *Connector) initialize(ctx context.Context, s *session) error {
	params := &protocol.InitializeParams{
		ProcessID: int32(os.Getpid()), //nolint:gosec // pid fits in int32
		ClientInfo: &protocol.ClientInfo{
			Name:    c.cfg.ClientName,
			Version: c.version,
		},
		Capabilities: protocol.ClientCapabilities{},
	}

	result, err := s.server.Initialize(ctx, params)
	if err != nil {
		return fmt.Errorf("initialize request: %w", err)
	}
	if result != nil && result.ServerInfo != nil {
		s.name = result.ServerInfo.Name
	}

	if err := s.server.Initialized(ctx, &protocol.InitializedParams{}); err != nil {
		return fmt.Errorf("initialized notification: %w", err)
	}
	return nil
}

const (
	methodLogMessage         = "window/logMessage"
	methodShowMessage        = "window/showMessage"
	methodProgressCreate     = "window/workDoneProgress/create"
	methodRegisterCapability = "client/registerCapability"
)

// handler serves server-to-client traffic. Log output is routed to slog and
// requests the client does not implement are answered with MethodNotFound.
func (c *Connector) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case methodLogMessage:
			var params protocol.LogMessageParams
			if err := decodeParams(req, &params); err != nil {
				return reply(ctx, nil, err)
			}
			slog.Log(ctx, logLevel(params.Type), "lsp server log", "client", c.cfg.ClientID, "message", params.Message)
			return reply(ctx, nil, nil)

		case methodShowMessage:
			var params protocol.ShowMessageParams
			if err := decodeParams(req, &params); err != nil {
				return reply(ctx, nil, err)
			}
			if c.onMessage != nil {
				c.onMessage(params.Type, params.Message)
			}
			return reply(ctx, nil, nil)

		case methodProgressCreate, methodRegisterCapability:
			return reply(ctx, nil, nil)

		default:
			slog.Debug("lsp request ignored", "client", c.cfg.ClientID, "method", req.Method())
			return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
		}
	}
}

func decodeParams(req jsonrpc2.Request, v any) error {
	if err := json.Unmarshal(req.Params(), v); err != nil {
		return fmt.Errorf("%w: %s", jsonrpc2.ErrInvalidParams, err)
	}
	return nil
}

func logLevel(t protocol.MessageType) slog.Level {
	switch t {
	case protocol.MessageTypeError:
		return slog.LevelError
	case protocol.MessageTypeWarning:
		return slog.LevelWarn
	case protocol.MessageTypeInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// errServerExited is the cancellation cause of a request whose server process
// exited before replying.
var errServerExited = errors.New("server process exited")

// session implements langserver.Session.
type session struct {
	id              string
	name            string
	proc            Process
	conn            jsonrpc2.Conn
	server          protocol.Server
	shutdownTimeout time.Duration

	exited   chan struct{}
	stopOnce sync.Once
	stopErr  error
}

func (s *session) ID() string            { return s.id }
func (s *session) PID() int              { return s.proc.Pid() }
func (s *session) ServerName() string    { return s.name }
func (s *session) Done() <-chan struct{} { return s.exited }

// untilExit derives a context that is also canceled, with cause
// errServerExited, once the server process exits. A positive timeout adds a
// deadline.
func (s *session) untilExit(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancelCause := context.WithCancelCause(parent)
	released := make(chan struct{})
	go func() {
		select {
		case <-s.exited:
			cancelCause(errServerExited)
		case <-released:
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(released)
			cancelCause(nil)
		})
	}
	if timeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

func (s *session) wait() {
	err := s.proc.Wait()
	close(s.exited)
	slog.Debug("lsp server process exited", "session_id", s.id, "pid", s.proc.Pid(), "error", err)
}

// Stop performs a graceful LSP shutdown (shutdown + exit). A server that has
// not exited within the shutdown timeout is killed. Calling Stop more than
// once is a no-op.
func (s *session) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.stopErr = s.stop(ctx)
	})
	return s.stopErr
}

func (s *session) stop(ctx context.Context) error {
	slog.Info("lsp server stopping", "session_id", s.id, "pid", s.proc.Pid())

	stopCtx, cancel := s.untilExit(ctx, s.shutdownTimeout)
	defer cancel()

	select {
	case <-s.exited:
	default:
		if err := s.server.Shutdown(stopCtx); err != nil {
			slog.Warn("lsp shutdown request failed", "session_id", s.id, "error", err)
		}
		if err := s.server.Exit(stopCtx); err != nil {
			slog.Debug("lsp exit notification failed", "session_id", s.id, "error", err)
		}
	}
	_ = s.conn.Close()

	select {
	case <-s.exited:
	case <-stopCtx.Done():
	}

	select {
	case <-s.exited:
	default:
		slog.Warn("lsp server did not exit gracefully, killing", "session_id", s.id, "pid", s.proc.Pid())
		if err := s.proc.Kill(); err != nil {
			return fmt.Errorf("kill lsp server: %w", err)
		}
		<-s.exited
	}

	slog.Info("lsp server stopped", "session_id", s.id)
	return nil
}

func (s *session) kill() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if err := s.proc.Kill(); err != nil {
		slog.Debug("kill lsp server", "session_id", s.id, "error", err)
	}
	<-s.exited
}
