package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// utf8BOM lets spreadsheet applications detect the encoding of
// Vietnamese product names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Ensure ProductSink implements the interface.
var _ driven.ProductSink = (*ProductSink)(nil)

// ProductSink writes catalog exports as UTF-8 CSV with a byte order mark.
type ProductSink struct{}

// NewProductSink creates a CSV product sink.
func NewProductSink() *ProductSink {
	return &ProductSink{}
}

// Format returns domain.ExportCSV.
func (s *ProductSink) Format() domain.ExportFormat {
	return domain.ExportCSV
}

// WriteProducts replaces the file at path with the export.
func (s *ProductSink) WriteProducts(ctx context.Context, path string, fields []string, products []domain.Product) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w: %w", err, domain.ErrConfiguration)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w: %w", path, err, domain.ErrConfiguration)
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing %s: %w: %w", path, err, domain.ErrConfiguration)
	}

	w := csv.NewWriter(file)
	if err := w.Write(fields); err != nil {
		return fmt.Errorf("writing header: %w: %w", err, domain.ErrConfiguration)
	}
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.Write(p.Row(fields)); err != nil {
			return fmt.Errorf("writing row: %w: %w", err, domain.ErrConfiguration)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w: %w", path, err, domain.ErrConfiguration)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w: %w", path, err, domain.ErrConfiguration)
	}
	return nil
}
