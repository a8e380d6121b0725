package driving

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// ProductExportOptions overrides the configured export settings.
// Zero values fall back to configuration.
type ProductExportOptions struct {
	PageSize   int
	OutputFile string
	Format     domain.ExportFormat
	Fields     []string
}

// ProductExporter dumps the master product catalog.
type ProductExporter interface {
	Export(ctx context.Context, opts ProductExportOptions) (*domain.ProductExportResult, error)
}
