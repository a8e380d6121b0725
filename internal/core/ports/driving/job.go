package driving

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// JobOptions selects what a job run does beyond the invoice sync.
type JobOptions struct {
	Incremental bool
	Products    bool
	Upload      bool
}

// JobRunner runs the full batch job under the single-instance lock and
// records it in history.
type JobRunner interface {
	Run(ctx context.Context, opts JobOptions) (*domain.SyncRun, error)
}
