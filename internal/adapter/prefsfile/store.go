// Package prefsfile persists provisioning preferences in a YAML settings file,
// namespaced the way editors store extension settings:
//
//	simplicityhl:
//	  suppressMissingLspWarning: true
//	  disableAutoupdate: false
//
// Keys outside the namespace, and unknown keys inside it, are preserved.
package prefsfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
)

// ErrUnknownKey is returned by Set for keys that are not preferences.
var ErrUnknownKey = errors.New("unknown preference key")

// Store implements prefstore.Store on a YAML file.
type Store struct {
	path      string
	namespace string
	mu        sync.Mutex
}

// New creates a Store for path under namespace.
func New(path, namespace string) *Store {
	return &Store{path: path, namespace: namespace}
}

// DefaultPath returns <user config dir>/lspkeeper/settings.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "lspkeeper", "settings.yaml"), nil
}

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// Load reads the preferences. A missing file or namespace yields defaults.
func (s *Store) Load(_ context.Context) (provision.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return provision.Preferences{}, err
	}
	ns, err := s.section(doc)
	if err != nil {
		return provision.Preferences{}, err
	}

	var prefs provision.Preferences
	if prefs.SuppressMissingLspWarning, err = s.boolValue(ns, provision.KeySuppressMissingLspWarning); err != nil {
		return provision.Preferences{}, err
	}
	if prefs.DisableAutoupdate, err = s.boolValue(ns, provision.KeyDisableAutoupdate); err != nil {
		return provision.Preferences{}, err
	}
	return prefs, nil
}

// Set writes one preference and keeps the rest of the file intact.
func (s *Store) Set(_ context.Context, key string, value bool) error {
	if !Known(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	ns, err := s.section(doc)
	if err != nil {
		return err
	}
	if ns == nil {
		ns = make(map[string]any)
	}
	ns[key] = value
	doc[s.namespace] = ns

	if err := s.write(doc); err != nil {
		return err
	}
	slog.Info("preference updated", "path", s.path, "key", s.namespace+"."+key, "value", value)
	return nil
}

// Known reports whether key names a preference.
func Known(key string) bool {
	return key == provision.KeySuppressMissingLspWarning || key == provision.KeyDisableAutoupdate
}

func (s *Store) read() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences %s: %w", s.path, err)
	}

	doc := make(map[string]any)
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", s.path, err)
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	return doc, nil
}

func (s *Store) section(doc map[string]any) (map[string]any, error) {
	raw, ok := doc[s.namespace]
	if !ok || raw == nil {
		return nil, nil
	}
	ns, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("preferences %s: %q must be a mapping", s.path, s.namespace)
	}
	return ns, nil
}

func (s *Store) boolValue(ns map[string]any, key string) (bool, error) {
	raw, ok := ns[key]
	if !ok || raw == nil {
		return false, nil
	}
	v, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("preferences %s: %s.%s must be a boolean, got %v", s.path, s.namespace, key, raw)
	}
	return v, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *Store) write(doc map[string]any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp preferences: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close preferences: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
