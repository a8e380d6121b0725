package driven

import (
	"context"
	"time"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// SyncObserver receives progress events from the invoice sync.
type SyncObserver interface {
	PageFetched(records, kept int)
	InvoiceWritten(lines int)
	DetailFailed()
	SyncFinished(result *domain.SyncResult, err error)
}

// RunReporter publishes the outcome of a whole job run.
type RunReporter interface {
	RunFinished(ctx context.Context, run *domain.SyncRun, elapsed time.Duration) error
}
