package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore keeps the watermark in a JSON file of the form
// {"last_purchase_date": "..."}.
type CheckpointStore struct {
	path string
}

// NewCheckpointStore creates a store for the checkpoint file at path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Location returns the checkpoint file path.
func (s *CheckpointStore) Location() string {
	return s.path
}

// Load returns the stored checkpoint, or nil if the file does not exist,
// is not a JSON object, or holds a null watermark.
func (s *CheckpointStore) Load(_ context.Context) (*domain.Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read checkpoint file %s: %v: %w", s.path, err, domain.ErrConfiguration)
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid checkpoint file %s: %v: %w", s.path, err, domain.ErrConfiguration)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, nil
	}

	value, ok := obj["last_purchase_date"]
	if !ok || value == nil {
		return nil, nil
	}
	watermark, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("checkpoint file %s: last_purchase_date must be a string: %w",
			s.path, domain.ErrConfiguration)
	}
	if watermark == "" {
		return nil, nil
	}

	return &domain.Checkpoint{LastPurchaseDate: watermark}, nil
}

// Save atomically replaces the stored watermark.
func (s *CheckpointStore) Save(_ context.Context, watermark string) error {
	if watermark == "" {
		return fmt.Errorf("purchase date must be non-empty: %w", domain.ErrConfiguration)
	}

	data, err := json.MarshalIndent(domain.Checkpoint{LastPurchaseDate: watermark}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("cannot write checkpoint file %s: %v: %w", s.path, err, domain.ErrConfiguration)
	}
	return nil
}
