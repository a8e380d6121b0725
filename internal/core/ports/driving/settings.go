package driving

import "github.com/kiotviet-integration/kvsync/internal/core/domain"

// SettingsService exposes the configuration for `kvsync config`.
type SettingsService interface {
	// Effective returns the settings the process runs with.
	Effective() *domain.Settings

	// Get returns the value stored in the config file for key.
	Get(key string) (any, bool, error)

	// Set checks raw against the schema and the rest of the settings,
	// then writes it to the config file.
	Set(key, raw string) error

	// Keys lists every settable key.
	Keys() []string

	// Path returns the config file path.
	Path() string
}
