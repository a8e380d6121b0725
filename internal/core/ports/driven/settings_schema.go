package driven

import "github.com/kiotviet-integration/kvsync/internal/core/domain"

// SettingsSchema describes the keys of the config file and how raw text
// maps onto them.
type SettingsSchema interface {
	// Keys returns every settable dotted key, sorted.
	Keys() []string

	// Coerce parses raw into the value stored in the config file for key.
	// Returns an error wrapping domain.ErrInvalidInput for unknown keys
	// or unparseable values.
	Coerce(key, raw string) (any, error)

	// Apply parses raw and assigns it to the field named by key.
	Apply(settings *domain.Settings, key, raw string) error

	// Validate checks a complete settings value.
	Validate(settings *domain.Settings) error
}
