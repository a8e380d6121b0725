package file

import (
	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// Ensure Schema implements the interface.
var _ driven.SettingsSchema = Schema{}

// Schema exposes the settings reflection helpers as a port.
type Schema struct{}

// Keys returns every settable key.
func (Schema) Keys() []string { return Keys() }

// Coerce parses raw into the stored type for key.
func (Schema) Coerce(key, raw string) (any, error) { return CoerceValue(key, raw) }

// Apply assigns raw to the field named by key.
func (Schema) Apply(settings *domain.Settings, key, raw string) error {
	return SetValue(settings, key, raw)
}

// Validate checks the settings.
func (Schema) Validate(settings *domain.Settings) error { return Validate(settings) }
