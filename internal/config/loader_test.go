package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Command != "simplicityhl-lsp" {
		t.Errorf("expected command simplicityhl-lsp, got %s", cfg.Server.Command)
	}
	if cfg.Provision.Toolchain != "cargo" {
		t.Errorf("expected toolchain cargo, got %s", cfg.Provision.Toolchain)
	}
	if !reflect.DeepEqual(cfg.Provision.ProgressMarkers, []string{"Compiling"}) {
		t.Errorf("unexpected progress markers %v", cfg.Provision.ProgressMarkers)
	}
	if cfg.Preferences.Namespace != "simplicityhl" {
		t.Errorf("expected namespace simplicityhl, got %s", cfg.Preferences.Namespace)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected shutdown timeout 5s, got %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  command: "my-lsp"
  start_timeout: 10s
provision:
  progress_markers: ["Compiling", "Installing"]
control:
  addr: "127.0.0.1:9999"
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Command != "my-lsp" {
		t.Errorf("expected command my-lsp, got %s", cfg.Server.Command)
	}
	if cfg.Server.StartTimeout != 10*time.Second {
		t.Errorf("expected start timeout 10s, got %v", cfg.Server.StartTimeout)
	}
	if len(cfg.Provision.ProgressMarkers) != 2 {
		t.Errorf("expected 2 progress markers, got %v", cfg.Provision.ProgressMarkers)
	}
	if cfg.Control.Addr != "127.0.0.1:9999" {
		t.Errorf("expected control addr override, got %s", cfg.Control.Addr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.Provision.Toolchain != "cargo" {
		t.Errorf("expected default toolchain, got %s", cfg.Provision.Toolchain)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLMalformed(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("LSPKEEPER_SERVER_COMMAND", "other-lsp")
	t.Setenv("LSPKEEPER_TOOLCHAIN", "/opt/cargo/bin/cargo")
	t.Setenv("LSPKEEPER_PROGRESS_MARKERS", "Compiling, Downloaded ,")
	t.Setenv("LSPKEEPER_CONTROL_ENABLED", "false")
	t.Setenv("LSPKEEPER_LOG_LEVEL", "warn")
	t.Setenv("LSPKEEPER_START_TIMEOUT", "1m")

	loadEnv(&cfg)

	if cfg.Server.Command != "other-lsp" {
		t.Errorf("expected other-lsp, got %s", cfg.Server.Command)
	}
	if cfg.Provision.Toolchain != "/opt/cargo/bin/cargo" {
		t.Errorf("expected toolchain override, got %s", cfg.Provision.Toolchain)
	}
	if !reflect.DeepEqual(cfg.Provision.ProgressMarkers, []string{"Compiling", "Downloaded"}) {
		t.Errorf("unexpected markers %v", cfg.Provision.ProgressMarkers)
	}
	if cfg.Control.Enabled {
		t.Error("expected control disabled")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Server.StartTimeout != time.Minute {
		t.Errorf("expected start timeout 1m, got %v", cfg.Server.StartTimeout)
	}
}

func TestEnvInvalidValuesIgnored(t *testing.T) {
	cfg := Defaults()

	t.Setenv("LSPKEEPER_CONTROL_ENABLED", "maybe")
	t.Setenv("LSPKEEPER_START_TIMEOUT", "soon")

	loadEnv(&cfg)

	if !cfg.Control.Enabled {
		t.Error("invalid bool should keep default")
	}
	if cfg.Server.StartTimeout != 30*time.Second {
		t.Errorf("invalid duration should keep default, got %v", cfg.Server.StartTimeout)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty command",
			modify: func(c *Config) { c.Server.Command = "" },
			errMsg: "server.command is required",
		},
		{
			name:   "empty toolchain",
			modify: func(c *Config) { c.Provision.Toolchain = "" },
			errMsg: "provision.toolchain is required",
		},
		{
			name:   "empty namespace",
			modify: func(c *Config) { c.Preferences.Namespace = "" },
			errMsg: "preferences.namespace is required",
		},
		{
			name:   "control without addr",
			modify: func(c *Config) { c.Control.Addr = "" },
			errMsg: "control.addr is required when control is enabled",
		},
		{
			name:   "negative timeout",
			modify: func(c *Config) { c.Server.ShutdownTimeout = -time.Second },
			errMsg: "server timeouts must be >= 0",
		},
		{
			name:   "unknown ui",
			modify: func(c *Config) { c.UI.Kind = "gui" },
			errMsg: `ui.kind must be "terminal" or "log", got "gui"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestValidateControlDisabledWithoutAddr(t *testing.T) {
	cfg := Defaults()
	cfg.Control.Enabled = false
	cfg.Control.Addr = ""
	if err := validate(&cfg); err != nil {
		t.Errorf("disabled control should not require addr, got %v", err)
	}
}

func TestOverridesWinOverEnv(t *testing.T) {
	t.Setenv("LSPKEEPER_LOG_LEVEL", "warn")
	t.Setenv("LSPKEEPER_UI", "terminal")

	level := "error"
	ui := "log"
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, path, err := LoadWithOverrides(Overrides{ConfigPath: &missing, LogLevel: &level, UIKind: &ui})
	if err != nil {
		t.Fatal(err)
	}
	if path != missing {
		t.Errorf("expected resolved path %s, got %s", missing, path)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected override log level error, got %s", cfg.Logging.Level)
	}
	if cfg.UI.Kind != "log" {
		t.Errorf("expected override ui log, got %s", cfg.UI.Kind)
	}
}

func TestApplyOverridesNil(t *testing.T) {
	cfg := Defaults()
	original := Defaults()

	applyOverrides(&cfg, Overrides{})

	if !reflect.DeepEqual(cfg, original) {
		t.Error("nil overrides must not change config")
	}
}

func TestLoadFromCustomFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(yamlPath, []byte("ui:\n  kind: log\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Kind != "log" {
		t.Errorf("expected ui log from YAML, got %s", cfg.UI.Kind)
	}
}
