package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Strob0t/lspkeeper/internal/config"
	"github.com/Strob0t/lspkeeper/internal/logger"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath  string
	logLevel    string
	controlAddr string
	uiKind      string

	cfg *config.Config
}

// overrides returns only the flags the user actually set.
func (g *globalFlags) overrides(cmd *cobra.Command) config.Overrides {
	ov := config.Overrides{ConfigPath: &g.configPath}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		ov.LogLevel = &g.logLevel
	}
	if flags.Changed("control-addr") {
		ov.ControlAddr = &g.controlAddr
	}
	if flags.Changed("ui") {
		ov.UIKind = &g.uiKind
	}
	return ov
}

func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "lspkeeper",
		Short:         "Provision and supervise the SimplicityHL language server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := config.LoadWithOverrides(g.overrides(cmd))
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			g.cfg = cfg
			slog.SetDefault(logger.New(cfg.Logging))
			slog.Debug("config loaded", "path", path, "command", cfg.Server.Command, "ui", cfg.UI.Kind)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", config.DefaultConfigFile, "path to the YAML configuration file")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&g.controlAddr, "control-addr", "", "control API listen/dial address")
	pf.StringVar(&g.uiKind, "ui", "", "user interface (terminal, log)")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newLocateCmd(g))
	root.AddCommand(newEnsureCmd(g))
	root.AddCommand(newInstallCmd(g))
	root.AddCommand(newStatusCmd(g))
	root.AddCommand(newRestartCmd(g))
	root.AddCommand(newPrefsCmd(g))

	return root
}
