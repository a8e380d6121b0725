package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
	"github.com/kiotviet-integration/kvsync/internal/logger"
)

// Ensure InvoiceSyncService implements the interface.
var _ driving.InvoiceSyncer = (*InvoiceSyncService)(nil)

// InvoiceSyncConfig holds the paging parameters of the invoice sync.
type InvoiceSyncConfig struct {
	PageSize  int
	TimeRange string
}

// InvoiceSyncConfigFromSettings maps application settings onto a sync config.
func InvoiceSyncConfigFromSettings(s domain.InvoiceSettings) InvoiceSyncConfig {
	return InvoiceSyncConfig{
		PageSize:  s.PageSize,
		TimeRange: s.TimeRange,
	}
}

// InvoiceSyncService pages completed invoices from the API, writes one
// output row per invoice line and advances the purchase-date watermark.
type InvoiceSyncService struct {
	config      InvoiceSyncConfig
	credentials driven.CredentialsStore
	checkpoints driven.CheckpointStore
	api         driven.InvoiceAPI
	output      driven.InvoiceOutput
	observer    driven.SyncObserver
	logger      *zap.Logger
	now         func() time.Time
}

// NewInvoiceSyncService creates an invoice sync service.
// The observer is optional.
func NewInvoiceSyncService(
	config InvoiceSyncConfig,
	credentials driven.CredentialsStore,
	checkpoints driven.CheckpointStore,
	api driven.InvoiceAPI,
	output driven.InvoiceOutput,
	observer driven.SyncObserver,
	log *zap.Logger,
) *InvoiceSyncService {
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	if config.TimeRange == "" {
		config.TimeRange = "month"
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &InvoiceSyncService{
		config:      config,
		credentials: credentials,
		checkpoints: checkpoints,
		api:         api,
		output:      output,
		observer:    observer,
		logger:      logger.OrNop(log).Named("invoice-sync"),
		now:         time.Now,
	}
}

// syncRun is the state owned by a single Sync call.
type syncRun struct {
	header      http.Header
	branchID    int64
	watermark   string
	incremental bool
	seen        map[int64]struct{}
	writer      driven.InvoiceWriter
	result      domain.SyncResult
}

// Sync runs one invoice synchronisation. When incremental is true and a
// checkpoint exists only invoices newer than the checkpoint are fetched
// and rows are appended to existing output; otherwise the output is
// rewritten from the server's default time window.
//
// The checkpoint is only written after the whole page loop succeeds, and
// never moves backwards.
func (s *InvoiceSyncService) Sync(ctx context.Context, incremental bool) (result *domain.SyncResult, err error) {
	started := s.now()
	defer func() {
		s.observer.SyncFinished(result, err)
	}()

	// 1. Credentials
	creds, err := s.credentials.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	// 2. Watermark
	stored, err := s.loadCheckpoint(ctx, incremental)
	if err != nil {
		return nil, err
	}

	run := &syncRun{
		header:   creds.Headers(),
		branchID: creds.BranchID,
		seen:     make(map[int64]struct{}),
	}
	if incremental && stored.Watermark() != "" {
		run.watermark = stored.Watermark()
		run.incremental = true
		run.result.NewestPurchaseDate = run.watermark
	}
	run.result.Incremental = run.incremental
	run.result.OutputFile = s.output.Path()

	// 3. Output
	mode, err := s.writeMode(run.incremental)
	if err != nil {
		return nil, err
	}
	run.writer, err = s.output.Open(mode)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}

	s.logger.Info("starting invoice sync",
		zap.String("mode", modeName(run.incremental)),
		zap.String("checkpoint", stringOr(run.watermark, "none")),
		zap.String("output", s.output.Path()),
		zap.Stringer("write_mode", mode),
	)

	// 4-5. Page loop
	loopErr := s.pageLoop(ctx, run)
	closeErr := run.writer.Close()
	if loopErr != nil {
		return nil, loopErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close output: %w", closeErr)
	}

	// 6. Checkpoint
	if stored.After(run.result.NewestPurchaseDate) {
		if err := s.checkpoints.Save(ctx, run.result.NewestPurchaseDate); err != nil {
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}
		run.result.CheckpointUpdated = true
		s.logger.Info("checkpoint updated", zap.String("last_purchase_date", run.result.NewestPurchaseDate))
	} else {
		s.logger.Info("no checkpoint change")
	}

	// 7. Result
	run.result.Duration = s.now().Sub(started)
	s.logger.Info("invoice sync finished",
		zap.Int("invoices", run.result.Invoices),
		zap.Int("lines", run.result.Lines),
		zap.Int("detail_failures", run.result.DetailFailures),
		zap.Duration("duration", run.result.Duration),
	)

	return &run.result, nil
}

// loadCheckpoint returns the stored checkpoint. Full runs only use it to
// keep the watermark from moving backwards, so an unreadable checkpoint is
// logged and ignored there.
func (s *InvoiceSyncService) loadCheckpoint(ctx context.Context, incremental bool) (*domain.Checkpoint, error) {
	stored, err := s.checkpoints.Load(ctx)
	if err == nil {
		return stored, nil
	}
	if incremental {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	s.logger.Warn("ignoring unreadable checkpoint on full sync",
		zap.String("path", s.checkpoints.Location()),
		zap.Error(err),
	)
	return nil, nil
}

func (s *InvoiceSyncService) writeMode(incremental bool) (domain.WriteMode, error) {
	if !incremental {
		return domain.WriteTruncate, nil
	}
	exists, err := s.output.Exists()
	if err != nil {
		return domain.WriteTruncate, fmt.Errorf("check output: %w", err)
	}
	if exists {
		return domain.WriteAppend, nil
	}
	return domain.WriteTruncate, nil
}

func (s *InvoiceSyncService) pageLoop(ctx context.Context, run *syncRun) error {
	for page, skip := 1, 0; ; page, skip = page+1, skip+s.config.PageSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.logger.Debug("fetching invoice page", zap.Int("page", page), zap.Int("skip", skip))

		query := driven.InvoicePageQuery{
			BranchID: run.branchID,
			Skip:     skip,
			Take:     s.config.PageSize,
		}
		if run.incremental {
			query.PurchaseDateFrom = run.watermark
		} else {
			query.TimeRange = s.config.TimeRange
		}

		records, err := s.api.ListInvoices(ctx, run.header, query)
		if err != nil {
			return fmt.Errorf("fetch invoice page %d: %w", page, err)
		}

		invoices := s.filter(run, records)
		s.observer.PageFetched(len(records), len(invoices))
		if len(invoices) == 0 {
			return nil
		}

		for _, inv := range invoices {
			if err := s.processInvoice(ctx, run, inv); err != nil {
				return err
			}
		}

		s.logger.Debug("invoice page processed",
			zap.Int("page", page),
			zap.Int("received", len(records)),
			zap.Int("kept", len(invoices)),
			zap.Int("invoices", run.result.Invoices),
			zap.Int("lines", run.result.Lines),
		)

		// A short page on an incremental run is taken as the end of the
		// new data, even though filtering may have shortened a full page.
		if run.incremental && len(invoices) < s.config.PageSize {
			return nil
		}
	}
}

// filter drops invalid and already-seen ids and, on incremental runs,
// invoices not strictly newer than the watermark. Survivors are marked seen.
func (s *InvoiceSyncService) filter(run *syncRun, records []domain.Invoice) []domain.Invoice {
	kept := make([]domain.Invoice, 0, len(records))
	for _, inv := range records {
		if inv.ID <= 0 {
			continue
		}
		if _, ok := run.seen[inv.ID]; ok {
			continue
		}
		if run.incremental && !(inv.PurchaseDate > run.watermark) {
			continue
		}
		run.seen[inv.ID] = struct{}{}
		kept = append(kept, inv)
	}
	return kept
}

func (s *InvoiceSyncService) processInvoice(ctx context.Context, run *syncRun, inv domain.Invoice) error {
	lines, err := s.api.InvoiceDetails(ctx, run.header, inv.ID)
	if err != nil {
		if ctx.Err() != nil || isFatalDetailError(err) {
			return fmt.Errorf("fetch details for invoice %d: %w", inv.ID, err)
		}
		s.logger.Warn("failed to fetch invoice details",
			zap.Int64("invoice_id", inv.ID),
			zap.String("invoice_code", inv.Code),
			zap.Error(err),
		)
		s.observer.DetailFailed()
		run.result.DetailFailures++
		lines = nil
	}

	for _, line := range lines {
		if err := run.writer.Write(domain.NewOutputRow(inv, line)); err != nil {
			return fmt.Errorf("write invoice %d: %w", inv.ID, err)
		}
	}

	run.result.Invoices++
	run.result.Lines += len(lines)
	s.observer.InvoiceWritten(len(lines))

	if inv.PurchaseDate > run.result.NewestPurchaseDate {
		run.result.NewestPurchaseDate = inv.PurchaseDate
	}
	return nil
}

// isFatalDetailError reports whether a detail fetch failure must abort the
// run instead of degrading to an invoice without lines. Cancellation is
// decided from the run context: a per-request timeout also unwraps to
// context.DeadlineExceeded and only costs that invoice its lines.
func isFatalDetailError(err error) bool {
	return errors.Is(err, domain.ErrAuthentication) ||
		errors.Is(err, domain.ErrRateLimited)
}

func modeName(incremental bool) string {
	if incremental {
		return "incremental"
	}
	return "full"
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// nopObserver discards progress events.
type nopObserver struct{}

func (nopObserver) PageFetched(int, int)                   {}
func (nopObserver) InvoiceWritten(int)                     {}
func (nopObserver) DetailFailed()                          {}
func (nopObserver) SyncFinished(*domain.SyncResult, error) {}
