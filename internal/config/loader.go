package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "lspkeeper.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// Overrides are command-line values. Nil fields leave the config untouched.
// Precedence: defaults < YAML < ENV < overrides.
type Overrides struct {
	ConfigPath  *string
	LogLevel    *string
	ControlAddr *string
	UIKind      *string
}

// LoadWithOverrides loads the YAML file named by ov.ConfigPath (or
// DefaultConfigFile), overlays ENV and then the command-line values.
// It returns the config and the YAML path that was consulted.
func LoadWithOverrides(ov Overrides) (*Config, string, error) {
	path := DefaultConfigFile
	if ov.ConfigPath != nil && *ov.ConfigPath != "" {
		path = *ov.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyOverrides(&cfg, ov)

	if err := validate(&cfg); err != nil {
		return nil, path, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}

func applyOverrides(cfg *Config, ov Overrides) {
	if ov.LogLevel != nil {
		cfg.Logging.Level = *ov.LogLevel
	}
	if ov.ControlAddr != nil {
		cfg.Control.Addr = *ov.ControlAddr
	}
	if ov.UIKind != nil {
		cfg.UI.Kind = *ov.UIKind
	}
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Command, "LSPKEEPER_SERVER_COMMAND")
	setList(&cfg.Server.Args, "LSPKEEPER_SERVER_ARGS")
	setString(&cfg.Server.DisplayName, "LSPKEEPER_DISPLAY_NAME")
	setDuration(&cfg.Server.StartTimeout, "LSPKEEPER_START_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "LSPKEEPER_SHUTDOWN_TIMEOUT")

	setString(&cfg.Provision.Toolchain, "LSPKEEPER_TOOLCHAIN")
	setList(&cfg.Provision.ProgressMarkers, "LSPKEEPER_PROGRESS_MARKERS")
	setString(&cfg.Provision.LearnMoreURL, "LSPKEEPER_LEARN_MORE_URL")

	setString(&cfg.Preferences.Path, "LSPKEEPER_PREFERENCES")
	setString(&cfg.Preferences.Namespace, "LSPKEEPER_NAMESPACE")

	setBool(&cfg.Control.Enabled, "LSPKEEPER_CONTROL_ENABLED")
	setString(&cfg.Control.Addr, "LSPKEEPER_CONTROL_ADDR")

	setString(&cfg.UI.Kind, "LSPKEEPER_UI")

	setString(&cfg.Logging.Level, "LSPKEEPER_LOG_LEVEL")
	setString(&cfg.Logging.Service, "LSPKEEPER_LOG_SERVICE")

	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "LSPKEEPER_OTLP_INSECURE")
	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Command == "" {
		return errors.New("server.command is required")
	}
	if cfg.Provision.Toolchain == "" {
		return errors.New("provision.toolchain is required")
	}
	if cfg.Preferences.Namespace == "" {
		return errors.New("preferences.namespace is required")
	}
	if cfg.Control.Enabled && cfg.Control.Addr == "" {
		return errors.New("control.addr is required when control is enabled")
	}
	if cfg.Server.StartTimeout < 0 || cfg.Server.ShutdownTimeout < 0 {
		return errors.New("server timeouts must be >= 0")
	}
	switch cfg.UI.Kind {
	case "terminal", "log":
	default:
		return fmt.Errorf("ui.kind must be \"terminal\" or \"log\", got %q", cfg.UI.Kind)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setList splits a comma-separated value, dropping empty items.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
