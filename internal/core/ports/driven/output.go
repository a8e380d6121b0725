package driven

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// InvoiceOutput is the destination of the invoice row stream.
type InvoiceOutput interface {
	// Path returns the output location.
	Path() string

	// Exists reports whether output from an earlier run is present.
	Exists() (bool, error)

	// Open starts a writer. WriteTruncate discards existing content and
	// writes the header row; WriteAppend adds rows after existing content.
	Open(mode domain.WriteMode) (InvoiceWriter, error)
}

// InvoiceWriter receives output rows in order.
// Close flushes buffered rows and must be called on every path.
type InvoiceWriter interface {
	Write(row domain.OutputRow) error
	Close() error
}

// ProductSink writes a catalog export file.
type ProductSink interface {
	// Format returns the file format the sink produces.
	Format() domain.ExportFormat

	// WriteProducts writes a header of fields followed by one row per
	// product. Fields missing from a product are written empty.
	WriteProducts(ctx context.Context, path string, fields []string, products []domain.Product) error
}
