package services

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService reads and edits the config file.
type SettingsService struct {
	configStore driven.ConfigStore
	schema      driven.SettingsSchema
	effective   *domain.Settings
}

// NewSettingsService creates a settings service. effective is the value
// loaded at startup; edits apply to the file and take effect on the next
// invocation.
func NewSettingsService(
	configStore driven.ConfigStore,
	schema driven.SettingsSchema,
	effective *domain.Settings,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		schema:      schema,
		effective:   effective,
	}
}

// Effective returns the loaded settings.
func (s *SettingsService) Effective() *domain.Settings {
	return s.effective
}

// Get returns the stored value for a known key.
func (s *SettingsService) Get(key string) (any, bool, error) {
	if !slices.Contains(s.schema.Keys(), key) {
		return nil, false, fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}
	val, ok := s.configStore.Get(key)
	return val, ok, nil
}

// Set validates and persists one value.
func (s *SettingsService) Set(key, raw string) error {
	value, err := s.schema.Coerce(key, raw)
	if err != nil {
		return err
	}

	candidate := domain.Settings{}
	if s.effective != nil {
		candidate = *s.effective
	}
	if err := s.schema.Apply(&candidate, key, raw); err != nil {
		return err
	}
	if err := s.schema.Validate(&candidate); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%s=%q rejected: %v: %w", key, raw, err, domain.ErrInvalidInput)
	}

	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("write %s: %w", s.configStore.Path(), err)
	}
	return nil
}

// Keys lists the settable keys.
func (s *SettingsService) Keys() []string {
	return s.schema.Keys()
}

// Path returns the config file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}
