// Package service contains the application services around the language client.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	lkotel "github.com/Strob0t/lspkeeper/internal/adapter/otel"
	"github.com/Strob0t/lspkeeper/internal/adapter/ws"
	"github.com/Strob0t/lspkeeper/internal/config"
	"github.com/Strob0t/lspkeeper/internal/domain/provision"
	"github.com/Strob0t/lspkeeper/internal/logger"
	"github.com/Strob0t/lspkeeper/internal/port/broadcast"
	"github.com/Strob0t/lspkeeper/internal/port/notifier"
	"github.com/Strob0t/lspkeeper/internal/port/prefstore"
	"github.com/Strob0t/lspkeeper/internal/port/toolchain"
)

// ProvisionService decides whether the language server executable is reused,
// installed/updated through the toolchain, or unavailable.
type ProvisionService struct {
	cfg       *config.Config
	locator   toolchain.Locator
	installer toolchain.Installer
	prefs     prefstore.Store
	ui        notifier.UI
	hub       broadcast.Broadcaster
	metrics   *lkotel.Metrics
}

// NewProvisionService creates a provisioning service.
func NewProvisionService(
	cfg *config.Config,
	locator toolchain.Locator,
	installer toolchain.Installer,
	prefs prefstore.Store,
	ui notifier.UI,
	hub broadcast.Broadcaster,
) *ProvisionService {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &ProvisionService{
		cfg:       cfg,
		locator:   locator,
		installer: installer,
		prefs:     prefs,
		ui:        ui,
		hub:       hub,
	}
}

// SetMetrics sets the metric instruments (optional).
func (s *ProvisionService) SetMetrics(m *lkotel.Metrics) { s.metrics = m }

func (s *ProvisionService) toolchainName() provision.CommandName {
	return provision.CommandName(s.cfg.Provision.Toolchain)
}

// Ensure returns a usable path for command, installing or updating it when
// the toolchain is available and the user has not opted out. Provisioning
// failures are reported to the user and yield provision.NotFound; the error
// is non-nil only when ctx is done.
func (s *ProvisionService) Ensure(ctx context.Context, command provision.CommandName) (provision.ResolvedPath, error) {
	ctx, span := lkotel.StartEnsureSpan(ctx, command.String())
	defer span.End()
	log := logger.From(ctx).With("command", command)

	toolPath, err := s.locator.Locate(ctx, s.toolchainName())
	if err != nil {
		return provision.NotFound, err
	}
	cmdPath, err := s.locator.Locate(ctx, command)
	if err != nil {
		return provision.NotFound, err
	}
	prefs := s.loadPrefs(ctx)

	switch {
	case !toolPath.Found() && !cmdPath.Found():
		if prefs.SuppressMissingLspWarning {
			log.Info("toolchain and server missing, warning suppressed", "toolchain", s.toolchainName())
			return provision.NotFound, nil
		}
		return provision.NotFound, s.warnMissingToolchain(ctx)

	case !toolPath.Found():
		log.Info("toolchain missing, using installed server", "path", cmdPath)
		return cmdPath, nil

	case cmdPath.Found() && prefs.DisableAutoupdate:
		log.Info("autoupdate disabled, using installed server", "path", cmdPath)
		return cmdPath, nil
	}

	return s.installAndLocate(ctx, command, cmdPath.Found())
}

// Install unconditionally installs or updates command and returns the
// re-located path. Unlike Ensure it returns the install error.
func (s *ProvisionService) Install(ctx context.Context, command provision.CommandName) (provision.ResolvedPath, error) {
	present, err := s.locator.Locate(ctx, command)
	if err != nil {
		return provision.NotFound, err
	}
	if err := s.runInstall(ctx, command, present.Found()); err != nil {
		return provision.NotFound, err
	}
	return s.locator.Locate(ctx, command)
}

func (s *ProvisionService) installAndLocate(ctx context.Context, command provision.CommandName, present bool) (provision.ResolvedPath, error) {
	log := logger.From(ctx).With("command", command)

	err := s.runInstall(ctx, command, present)
	switch {
	case err == nil:
	case errors.Is(err, provision.ErrInstallCanceled):
		log.Info("install canceled")
		return provision.NotFound, ctx.Err()
	default:
		log.Error("install failed", "error", err)
		notifier.Error(ctx, s.ui, "provision.failed", fmt.Sprintf("Failed to install %s: %v", command, err))
		return provision.NotFound, nil
	}

	path, err := s.locator.Locate(ctx, command)
	if err != nil {
		return provision.NotFound, err
	}
	if !path.Found() {
		log.Warn("install succeeded but executable is not in the search path")
		return provision.NotFound, nil
	}
	log.Info("server provisioned", "path", path)
	return path, nil
}

// runInstall runs the installer inside a cancellable progress scope.
func (s *ProvisionService) runInstall(ctx context.Context, command provision.CommandName, present bool) error {
	action := provision.ActionInstalling
	if present {
		action = provision.ActionUpdating
	}
	title := string(action) + " " + command.String()

	return s.ui.WithProgress(ctx, title, true, func(ctx context.Context, report func(string)) error {
		feed := newProgressFeed(ctx, s.hub)
		var session *provision.InstallSession
		session = provision.NewInstallSession(command, action, func(msg string) {
			report(msg)
			feed.publish(progressEvent(session, msg))
		})
		ctx = logger.WithSessionID(ctx, session.ID)

		ctx, span := lkotel.StartInstallSpan(ctx, session.ID, command.String(), string(action))
		s.metrics.InstallStarted(ctx, string(action))
		feed.publish(progressEvent(session, ""))
		start := time.Now()

		err := s.installer.Install(ctx, session)

		lkotel.EndSpan(span, err)
		s.metrics.InstallFinished(ctx, session.Outcome().String(), time.Since(start))
		if dropped := feed.close(); dropped > 0 {
			logger.From(ctx).Debug("install progress frames dropped", "count", dropped)
		}
		s.hub.BroadcastEvent(ctx, ws.EventProvisionProgress, progressEvent(session, ""))
		logger.From(ctx).Info("install session resolved",
			"action", action, "outcome", session.Outcome().String(), "duration", time.Since(start))
		return err
	})
}

// warnMissingToolchain asks the user to install the toolchain and acts on
// the answer. Only a done ctx is returned as an error.
func (s *ProvisionService) warnMissingToolchain(ctx context.Context) error {
	message := fmt.Sprintf("To use %s language server, please install %s", s.cfg.Server.DisplayName, s.cfg.Provision.Toolchain)
	choice, err := s.ui.Ask(ctx, message, provision.ChoiceLearnMore, provision.ChoiceDontShowAgain)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.From(ctx).Warn("missing toolchain dialog failed", "error", err)
		return nil
	}

	switch choice {
	case provision.ChoiceLearnMore:
		if err := s.ui.OpenExternal(ctx, s.cfg.Provision.LearnMoreURL); err != nil {
			logger.From(ctx).Warn("open learn more link", "url", s.cfg.Provision.LearnMoreURL, "error", err)
		}
	case provision.ChoiceDontShowAgain:
		if err := s.prefs.Set(ctx, provision.KeySuppressMissingLspWarning, true); err != nil {
			logger.From(ctx).Error("persist preference", "key", provision.KeySuppressMissingLspWarning, "error", err)
		}
	case provision.ChoiceDismissed:
	}
	return nil
}

// loadPrefs returns the persisted preferences, or the defaults when the
// store cannot be read.
func (s *ProvisionService) loadPrefs(ctx context.Context) provision.Preferences {
	prefs, err := s.prefs.Load(ctx)
	if err != nil {
		logger.From(ctx).Warn("load preferences, using defaults", "error", err)
		return provision.Preferences{}
	}
	return prefs
}

func progressEvent(session *provision.InstallSession, msg string) ws.ProvisionProgressEvent {
	return ws.ProvisionProgressEvent{
		SessionID: session.ID,
		Command:   session.Command.String(),
		Action:    string(session.Action),
		Message:   msg,
		Outcome:   session.Outcome().String(),
	}
}
