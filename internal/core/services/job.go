package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
	"github.com/kiotviet-integration/kvsync/internal/logger"
)

// DefaultHistoryLimit is the number of runs kept in history.
const DefaultHistoryLimit = 500

// Ensure JobService implements the interface.
var _ driving.JobRunner = (*JobService)(nil)

// JobConfig configures the job runner.
type JobConfig struct {
	// LockKey names the single-instance lock.
	LockKey string
	// UploadPrefix is prepended to every uploaded blob name.
	UploadPrefix string
	// HistoryLimit is the number of runs kept after each run.
	HistoryLimit int
}

// JobService runs the batch job: invoice sync, optional product export
// and optional upload, under the run lock, recording every run.
type JobService struct {
	config   JobConfig
	syncer   driving.InvoiceSyncer
	exporter driving.ProductExporter
	lock     driven.RunLock
	uploader driven.BlobUploader
	history  driven.RunHistoryStore
	reporter driven.RunReporter
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewJobService creates a job runner. The uploader, history store and
// reporter are optional.
func NewJobService(
	config JobConfig,
	syncer driving.InvoiceSyncer,
	exporter driving.ProductExporter,
	lock driven.RunLock,
	uploader driven.BlobUploader,
	history driven.RunHistoryStore,
	reporter driven.RunReporter,
	log *zap.Logger,
) *JobService {
	if config.LockKey == "" {
		config.LockKey = "kvsync:invoice-sync"
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = DefaultHistoryLimit
	}
	return &JobService{
		config:   config,
		syncer:   syncer,
		exporter: exporter,
		lock:     lock,
		uploader: uploader,
		history:  history,
		reporter: reporter,
		logger:   logger.OrNop(log).Named("job"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run executes one job. A run that fails after acquiring the lock is still
// recorded and returned alongside the error. Returns an error wrapping
// domain.ErrSyncInProgress if another run holds the lock.
func (j *JobService) Run(ctx context.Context, opts driving.JobOptions) (run *domain.SyncRun, err error) {
	release, err := j.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
			err = errors.Join(err, fmt.Errorf("release run lock: %w", releaseErr))
		}
	}()

	run = &domain.SyncRun{
		ID:          j.newID(),
		Incremental: opts.Incremental,
		StartedAt:   j.now(),
	}
	j.logger.Info("job started",
		zap.String("run_id", run.ID),
		zap.Bool("incremental", opts.Incremental),
		zap.Bool("products", opts.Products),
		zap.Bool("upload", opts.Upload),
	)

	runErr := j.execute(ctx, opts, run)

	run.FinishedAt = j.now()
	run.Status = domain.RunSucceeded
	if runErr != nil {
		run.Status = domain.RunFailed
		run.Error = runErr.Error()
	}

	j.finish(ctx, run)

	if runErr != nil {
		j.logger.Error("job failed", zap.String("run_id", run.ID), zap.Error(runErr))
		return run, runErr
	}
	j.logger.Info("job finished",
		zap.String("run_id", run.ID),
		zap.Int("invoices", run.Invoices),
		zap.Int("lines", run.Lines),
		zap.Int("products", run.Products),
		zap.Duration("duration", run.Duration()),
	)
	return run, nil
}

func (j *JobService) acquire(ctx context.Context) (driven.ReleaseFunc, error) {
	if j.lock == nil {
		return func(context.Context) error { return nil }, nil
	}
	release, err := j.lock.Acquire(ctx, j.config.LockKey)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	return release, nil
}

func (j *JobService) execute(ctx context.Context, opts driving.JobOptions, run *domain.SyncRun) error {
	var files []string

	result, err := j.syncer.Sync(ctx, opts.Incremental)
	if err != nil {
		return fmt.Errorf("invoice sync: %w", err)
	}
	run.Incremental = result.Incremental
	run.Invoices = result.Invoices
	run.Lines = result.Lines
	run.Checkpoint = result.NewestPurchaseDate
	files = append(files, result.OutputFile)

	if opts.Products {
		if j.exporter == nil {
			return fmt.Errorf("product export not configured: %w", domain.ErrConfiguration)
		}
		exported, err := j.exporter.Export(ctx, driving.ProductExportOptions{})
		if err != nil {
			return fmt.Errorf("product export: %w", err)
		}
		run.Products = exported.Products
		if exported.OutputFile != "" {
			files = append(files, exported.OutputFile)
		}
	}

	if opts.Upload {
		return j.upload(ctx, files, run)
	}
	return nil
}

// upload sends every produced file, continuing past failures.
func (j *JobService) upload(ctx context.Context, files []string, run *domain.SyncRun) error {
	if j.uploader == nil {
		return fmt.Errorf("upload requested but no provider is configured: %w", domain.ErrConfiguration)
	}

	var errs []error
	for _, file := range files {
		name := BlobName(j.config.UploadPrefix, file)
		url, err := j.uploader.Upload(ctx, file, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("upload %s to %s: %w", file, j.uploader.Name(), err))
			continue
		}
		run.Uploads = append(run.Uploads, url)
		j.logger.Info("file uploaded",
			zap.String("provider", j.uploader.Name()),
			zap.String("file", file),
			zap.String("url", url),
		)
	}
	return errors.Join(errs...)
}

// finish records and reports the run. Failures here are logged only.
func (j *JobService) finish(ctx context.Context, run *domain.SyncRun) {
	// Record even when the run was cancelled.
	ctx = context.WithoutCancel(ctx)

	if j.history != nil {
		if err := j.history.Record(ctx, run); err != nil {
			j.logger.Warn("failed to record run", zap.String("run_id", run.ID), zap.Error(err))
		} else if err := j.history.Prune(ctx, j.config.HistoryLimit); err != nil {
			j.logger.Warn("failed to prune run history", zap.Error(err))
		}
	}

	if j.reporter != nil {
		if err := j.reporter.RunFinished(ctx, run, run.Duration()); err != nil {
			j.logger.Warn("failed to report run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
}

// BlobName returns the blob name for a local file: its base name under
// prefix.
func BlobName(prefix, file string) string {
	base := filepath.Base(file)
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}
