// Package prefstore defines the port for the durable configuration store
// holding the user's provisioning preferences.
package prefstore

import (
	"context"

	"github.com/Strob0t/lspkeeper/internal/domain/provision"
)

// Store reads and writes persisted preferences.
type Store interface {
	// Load returns the current preferences; missing values take their defaults.
	Load(ctx context.Context) (provision.Preferences, error)

	// Set persists a single option by key (provision.Key* constants).
	Set(ctx context.Context, key string, value bool) error
}
