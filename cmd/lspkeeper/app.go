package main

import (
	"context"
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/Strob0t/lspkeeper/internal/adapter/cargo"
	"github.com/Strob0t/lspkeeper/internal/adapter/locator"
	"github.com/Strob0t/lspkeeper/internal/adapter/lsp"
	"github.com/Strob0t/lspkeeper/internal/adapter/prefsfile"
	"github.com/Strob0t/lspkeeper/internal/adapter/ws"
	"github.com/Strob0t/lspkeeper/internal/config"
	lspDomain "github.com/Strob0t/lspkeeper/internal/domain/lsp"
	"github.com/Strob0t/lspkeeper/internal/domain/provision"
	"github.com/Strob0t/lspkeeper/internal/logger"
	"github.com/Strob0t/lspkeeper/internal/port/broadcast"
	"github.com/Strob0t/lspkeeper/internal/port/notifier"
	"github.com/Strob0t/lspkeeper/internal/service"

	// UI adapters register themselves with the notifier registry.
	_ "github.com/Strob0t/lspkeeper/internal/adapter/logui"
	_ "github.com/Strob0t/lspkeeper/internal/adapter/terminal"
)

// app is the wired object graph shared by the subcommands.
type app struct {
	cfg       *config.Config
	ui        notifier.UI
	locator   *locator.Locator
	prefs     *prefsfile.Store
	provision *service.ProvisionService
	ext       *service.Extension
}

// serverConfig maps the server config section onto the domain launch config.
func serverConfig(s config.Server) lspDomain.ServerConfig {
	return lspDomain.ServerConfig{
		Command:         s.Command,
		Args:            s.Args,
		ClientID:        s.ClientID,
		ClientName:      s.ClientName,
		DisplayName:     s.DisplayName,
		LanguageID:      s.LanguageID,
		StartTimeout:    s.StartTimeout,
		ShutdownTimeout: s.ShutdownTimeout,
	}
}

// newPrefs opens the preferences file named in cfg or the per-user default.
func newPrefs(cfg *config.Config) (*prefsfile.Store, error) {
	path := cfg.Preferences.Path
	if path == "" {
		p, err := prefsfile.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("preferences path: %w", err)
		}
		path = p
	}
	return prefsfile.New(path, cfg.Preferences.Namespace), nil
}

// newApp wires the adapters and services. hub may be nil when nobody
// observes live events.
func newApp(cfg *config.Config, hub *ws.Hub) (*app, error) {
	var bc broadcast.Broadcaster = broadcast.Nop{}
	if hub != nil {
		bc = hub
	}

	base, err := notifier.New(cfg.UI.Kind, nil)
	if err != nil {
		return nil, fmt.Errorf("ui: %w (available: %v)", err, notifier.Available())
	}
	ui := service.NewNotificationService(base, bc, nil)

	prefs, err := newPrefs(cfg)
	if err != nil {
		return nil, err
	}

	loc := locator.New()
	installer := cargo.NewInstaller(
		provision.CommandName(cfg.Provision.Toolchain),
		loc,
		cargo.WithMarkers(cfg.Provision.ProgressMarkers),
	)
	provisionSvc := service.NewProvisionService(cfg, loc, installer, prefs, ui, bc)

	srvCfg := serverConfig(cfg.Server)
	connector := lsp.NewConnector(srvCfg,
		lsp.WithZapLogger(logger.Zap(cfg.Logging)),
		lsp.WithClientVersion(version),
		lsp.WithMessageHandler(serverMessages(ui, srvCfg.DisplayName)),
	)
	sup := service.NewSupervisor(srvCfg, provisionSvc, connector, ui, bc)

	return &app{
		cfg:       cfg,
		ui:        ui,
		locator:   loc,
		prefs:     prefs,
		provision: provisionSvc,
		ext:       service.NewExtension(cfg.Preferences.Namespace, sup),
	}, nil
}

// serverMessages forwards window/showMessage requests from the server to the user.
func serverMessages(ui notifier.UI, displayName string) lsp.MessageFunc {
	return func(typ protocol.MessageType, message string) {
		n := notifier.Notification{
			Message: fmt.Sprintf("%s: %s", displayName, message),
			Level:   notifier.LevelInfo,
			Source:  "lsp.server_message",
		}
		switch typ {
		case protocol.MessageTypeError:
			n.Level = notifier.LevelError
		case protocol.MessageTypeWarning:
			n.Level = notifier.LevelWarning
		}
		ui.Notify(context.Background(), n)
	}
}
