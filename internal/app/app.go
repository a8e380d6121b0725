// Package app wires configuration, adapters and services into the command
// tree. It is the only package that imports both driven adapters and the
// CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/blob/azure"
	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/blob/gcs"
	configfile "github.com/kiotviet-integration/kvsync/internal/adapters/driven/config/file"
	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/lock/local"
	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/lock/redis"
	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/output/csvfile"
	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/output/xlsx"
	storefile "github.com/kiotviet-integration/kvsync/internal/adapters/driven/storage/file"
	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/storage/sqlite"
	"github.com/kiotviet-integration/kvsync/internal/adapters/driving/cli"
	"github.com/kiotviet-integration/kvsync/internal/connectors/kiotviet"
	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
	"github.com/kiotviet-integration/kvsync/internal/core/services"
	"github.com/kiotviet-integration/kvsync/internal/logger"
	"github.com/kiotviet-integration/kvsync/internal/metrics"
)

// Ensure Build satisfies the CLI bootstrap signature.
var _ cli.Bootstrap = Build

// Build loads settings and constructs every service for one invocation.
// The returned func closes the opened stores and connections and flushes
// the logger.
func Build(ctx context.Context, opts cli.GlobalOptions) (*cli.Services, func(), error) {
	settings, err := configfile.LoadSettings(configfile.LoadOptions{
		Path:     opts.ConfigPath,
		Required: opts.ConfigPath != "" && opts.ConfigPath != configfile.DefaultConfigFile,
		EnvFile:  opts.EnvFile,
	})
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Options{
		Level:      settings.Logging.Level,
		Format:     settings.Logging.Format,
		OutputPath: settings.Logging.OutputPath,
		Verbose:    opts.Verbose,
	})
	if err != nil {
		return nil, nil, err
	}

	var closers []io.Closer
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn("close failed", zap.Error(err))
			}
		}
		_ = log.Sync()
	}
	fail := func(err error) (*cli.Services, func(), error) {
		release()
		return nil, nil, err
	}

	data := settings.Data
	client := kiotviet.NewClient(kiotviet.ConfigFromSettings(settings.API), log)
	credentials := storefile.NewCredentialsStore(data.Resolve(data.CredentialsFile), log)
	checkpoints := storefile.NewCheckpointStore(data.Resolve(data.CheckpointFile))
	recorder := metrics.New(metrics.Config{
		PushgatewayURL: settings.Metrics.PushgatewayURL,
		Job:            settings.Metrics.Job,
	}, log)

	syncer := services.NewInvoiceSyncService(
		services.InvoiceSyncConfigFromSettings(settings.Invoices),
		credentials,
		checkpoints,
		client,
		csvfile.NewInvoiceFile(data.Resolve(settings.Invoices.OutputFile)),
		recorder,
		log,
	)
	exporter := services.NewProductExportService(
		services.ProductExportConfigFromSettings(data, settings.Products),
		credentials,
		client,
		log,
		csvfile.NewProductSink(),
		xlsx.NewProductSink(),
	)

	store, err := sqlite.NewStore(data.Resolve(data.HistoryDir))
	if err != nil {
		return fail(fmt.Errorf("open history store: %w", err))
	}
	closers = append(closers, store)

	runLock, lockCloser, err := newRunLock(ctx, settings.Lock, log)
	if err != nil {
		return fail(err)
	}
	if lockCloser != nil {
		closers = append(closers, lockCloser)
	}

	uploader, uploadCloser, err := newUploader(ctx, settings.Upload, log)
	if err != nil {
		return fail(err)
	}
	if uploadCloser != nil {
		closers = append(closers, uploadCloser)
	}

	jobs := services.NewJobService(
		services.JobConfig{
			LockKey:      settings.Lock.Key,
			UploadPrefix: settings.Upload.Prefix,
		},
		syncer,
		exporter,
		runLock,
		uploader,
		store.RunHistoryStore(),
		recorder,
		log,
	)
	scheduler := services.NewScheduler(
		services.SchedulerConfigFromSettings(settings.Scheduler),
		store.SchedulerStore(),
		jobs,
		driving.JobOptions{
			Products: settings.Scheduler.Products,
			Upload:   settings.Scheduler.Upload,
		},
		log,
	)

	configStore, err := configfile.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return fail(fmt.Errorf("open config file: %w", err))
	}

	log.Debug("services ready",
		zap.String("config", opts.ConfigPath),
		zap.String("data_dir", data.Dir),
		zap.String("history", store.Path()),
		zap.Bool("upload", uploader != nil),
	)

	return &cli.Services{
		Syncer:      syncer,
		Exporter:    exporter,
		Jobs:        jobs,
		Scheduler:   scheduler,
		State:       services.NewStateService(checkpoints, store.RunHistoryStore()),
		Credentials: services.NewCredentialsService(credentials),
		Settings:    services.NewSettingsService(configStore, configfile.Schema{}, settings),
		Metrics:     recorder.Handler(),
		Logger:      log,
	}, release, nil
}

// newRunLock returns the Redis lock when an address is configured and the
// in-process lock otherwise.
func newRunLock(ctx context.Context, s domain.LockSettings, log *zap.Logger) (driven.RunLock, io.Closer, error) {
	if s.RedisAddr == "" {
		return local.New(), nil, nil
	}
	l, err := redis.New(ctx, redis.Options{
		Addr:     s.RedisAddr,
		Password: s.RedisPassword,
		DB:       s.RedisDB,
		TTL:      s.TTL.Std(),
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("run lock: %v: %w", err, domain.ErrConfiguration)
	}
	return l, l, nil
}

// newUploader returns the configured blob uploader, or nil when upload is
// disabled.
func newUploader(ctx context.Context, s domain.UploadSettings, log *zap.Logger) (driven.BlobUploader, io.Closer, error) {
	switch s.Provider {
	case "":
		return nil, nil, nil
	case "azure":
		u, err := azure.New(s.AzureConnectionString, s.AzureContainer, log)
		if err != nil {
			return nil, nil, fmt.Errorf("azure upload: %v: %w", err, domain.ErrConfiguration)
		}
		return u, nil, nil
	case "gcs":
		u, err := gcs.New(ctx, s.GCSBucket, s.GCSCredentialsFile, log)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs upload: %v: %w", err, domain.ErrConfiguration)
		}
		return u, u, nil
	}
	return nil, nil, errors.New("unknown upload provider " + s.Provider)
}
