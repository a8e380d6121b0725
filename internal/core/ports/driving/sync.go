package driving

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// InvoiceSyncer runs the incremental invoice synchronization.
type InvoiceSyncer interface {
	// Sync pages through completed invoices, writes one output row per
	// invoice line and advances the checkpoint on success.
	// When incremental is false the stored watermark is not used for
	// filtering and the output file is rewritten.
	Sync(ctx context.Context, incremental bool) (*domain.SyncResult, error)
}
