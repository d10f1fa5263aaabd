// Package config provides hierarchical configuration loading for lspkeeper.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the language server keeper.
type Config struct {
	Server      Server      `yaml:"server"`
	Provision   Provision   `yaml:"provision"`
	Preferences Preferences `yaml:"preferences"`
	Control     Control     `yaml:"control"`
	UI          UI          `yaml:"ui"`
	Logging     Logging     `yaml:"logging"`
	Telemetry   Telemetry   `yaml:"telemetry"`
}

// Server describes the language server to provision and connect to.
type Server struct {
	Command         string        `yaml:"command"`          // executable name (default: "simplicityhl-lsp")
	Args            []string      `yaml:"args"`             // extra server arguments
	ClientID        string        `yaml:"client_id"`        // LSP client id
	ClientName      string        `yaml:"client_name"`      // LSP client name sent in clientInfo
	DisplayName     string        `yaml:"display_name"`     // product name used in messages
	LanguageID      string        `yaml:"language_id"`      // document language served
	StartTimeout    time.Duration `yaml:"start_timeout"`    // initialize handshake timeout, 0 = none
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // graceful shutdown before kill
}

// Provision holds toolchain and install configuration.
type Provision struct {
	Toolchain       string   `yaml:"toolchain"`        // package manager executable (default: "cargo")
	ProgressMarkers []string `yaml:"progress_markers"` // stderr line prefixes surfaced as progress
	LearnMoreURL    string   `yaml:"learn_more_url"`   // opened by the "Learn more" choice
}

// Preferences locates the persisted user preferences.
type Preferences struct {
	Path      string `yaml:"path"`      // YAML settings file; empty = <user config dir>/lspkeeper/settings.yaml
	Namespace string `yaml:"namespace"` // key namespace inside the file (default: "simplicityhl")
}

// Control holds the loopback control API configuration.
type Control struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// UI selects the user-interaction adapter ("terminal" or "log").
type UI struct {
	Kind string `yaml:"kind"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Telemetry holds OpenTelemetry exporter configuration. An empty endpoint
// keeps the global no-op providers.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// Defaults returns a Config with the values used by the SimplicityHL editor integration.
func Defaults() Config {
	return Config{
		Server: Server{
			Command:         "simplicityhl-lsp",
			ClientID:        "simplicityhlLspClient",
			ClientName:      "SimplicityHL LSP",
			DisplayName:     "SimplicityHL",
			LanguageID:      "simplicityhl",
			StartTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Provision: Provision{
			Toolchain:       "cargo",
			ProgressMarkers: []string{"Compiling"},
			LearnMoreURL:    "https://rust-lang.org/tools/install",
		},
		Preferences: Preferences{
			Namespace: "simplicityhl",
		},
		Control: Control{
			Enabled: true,
			Addr:    "127.0.0.1:7878",
		},
		UI: UI{
			Kind: "terminal",
		},
		Logging: Logging{
			Level:   "info",
			Service: "lspkeeper",
		},
		Telemetry: Telemetry{
			Insecure:    true,
			ServiceName: "lspkeeper",
		},
	}
}
