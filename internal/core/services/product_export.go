package services

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
	"github.com/kiotviet-integration/kvsync/internal/logger"
)

// MaxProductPageSize is the largest page the catalog endpoint accepts.
const MaxProductPageSize = 1000

// maxProductPrealloc bounds the slice capacity reserved from the reported
// catalog size.
const maxProductPrealloc = 10 * MaxProductPageSize

// Ensure ProductExportService implements the interface.
var _ driving.ProductExporter = (*ProductExportService)(nil)

// ProductExportConfig holds the configured export defaults.
type ProductExportConfig struct {
	PageSize   int
	OutputFile string
	Format     domain.ExportFormat
	Fields     []string
}

// ProductExportConfigFromSettings maps application settings onto an export
// config. Relative output paths resolve against the data directory.
func ProductExportConfigFromSettings(data domain.DataSettings, s domain.ProductSettings) ProductExportConfig {
	return ProductExportConfig{
		PageSize:   s.PageSize,
		OutputFile: data.Resolve(s.OutputFile),
		Format:     domain.ExportFormat(s.Format),
		Fields:     s.Fields,
	}
}

// ProductExportService dumps the master product catalog to a file.
type ProductExportService struct {
	config      ProductExportConfig
	credentials driven.CredentialsStore
	api         driven.ProductAPI
	sinks       map[domain.ExportFormat]driven.ProductSink
	logger      *zap.Logger
	now         func() time.Time
}

// NewProductExportService creates a product export service writing
// through the given sinks, one per format.
func NewProductExportService(
	config ProductExportConfig,
	credentials driven.CredentialsStore,
	api driven.ProductAPI,
	log *zap.Logger,
	sinks ...driven.ProductSink,
) *ProductExportService {
	if config.PageSize == 0 {
		config.PageSize = 100
	}
	if config.Format == "" {
		config.Format = domain.ExportCSV
	}
	if len(config.Fields) == 0 {
		config.Fields = domain.DefaultProductFields
	}

	bySink := make(map[domain.ExportFormat]driven.ProductSink, len(sinks))
	for _, sink := range sinks {
		bySink[sink.Format()] = sink
	}

	return &ProductExportService{
		config:      config,
		credentials: credentials,
		api:         api,
		sinks:       bySink,
		logger:      logger.OrNop(log).Named("product-export"),
		now:         time.Now,
	}
}

// Export fetches every catalog page and writes the configured fields.
// When the catalog is empty no file is written and OutputFile is empty.
func (s *ProductExportService) Export(
	ctx context.Context,
	opts driving.ProductExportOptions,
) (*domain.ProductExportResult, error) {
	creds, err := s.credentials.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	resolved, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}

	sink, ok := s.sinks[resolved.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q: %w", resolved.Format, domain.ErrConfiguration)
	}

	started := s.now()
	s.logger.Info("starting product export",
		zap.Int("page_size", resolved.PageSize),
		zap.String("format", string(resolved.Format)),
		zap.String("output", resolved.OutputFile),
	)

	header := creds.Headers()
	products, err := s.fetchAll(ctx, header, creds.BranchID, resolved.PageSize)
	if err != nil {
		return nil, err
	}

	result := &domain.ProductExportResult{
		Products: len(products),
		Format:   resolved.Format,
	}

	if len(products) == 0 {
		s.logger.Warn("no products to export")
	} else {
		if err := sink.WriteProducts(ctx, resolved.OutputFile, resolved.Fields, products); err != nil {
			return nil, fmt.Errorf("write products: %w", err)
		}
		result.OutputFile = resolved.OutputFile
	}

	result.Duration = s.now().Sub(started)
	s.logger.Info("product export finished",
		zap.Int("products", result.Products),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// resolve applies overrides to the configured defaults and validates them.
func (s *ProductExportService) resolve(opts driving.ProductExportOptions) (ProductExportConfig, error) {
	cfg := s.config

	if opts.PageSize != 0 {
		cfg.PageSize = opts.PageSize
	}
	if cfg.PageSize <= 0 {
		return cfg, fmt.Errorf("page_size must be positive: %w", domain.ErrConfiguration)
	}
	if cfg.PageSize > MaxProductPageSize {
		return cfg, fmt.Errorf("page_size cannot exceed %d: %w", MaxProductPageSize, domain.ErrConfiguration)
	}

	if opts.Format != "" {
		cfg.Format = opts.Format
	}
	if !cfg.Format.IsValid() {
		return cfg, fmt.Errorf("unsupported export format %q: %w", cfg.Format, domain.ErrConfiguration)
	}

	if len(opts.Fields) > 0 {
		cfg.Fields = opts.Fields
	}

	if opts.OutputFile != "" {
		cfg.OutputFile = opts.OutputFile
	} else {
		cfg.OutputFile = withExtension(cfg.OutputFile, cfg.Format)
	}
	if cfg.OutputFile == "" {
		return cfg, fmt.Errorf("output file is required: %w", domain.ErrConfiguration)
	}

	return cfg, nil
}

func (s *ProductExportService) fetchAll(
	ctx context.Context,
	header http.Header,
	branchID int64,
	pageSize int,
) ([]domain.Product, error) {
	total, err := s.api.CountProducts(ctx, header, branchID)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if total <= 0 {
		return nil, nil
	}

	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	s.logger.Debug("catalog size", zap.Int("total", total), zap.Int("pages", pages))

	// The count comes from the server; it only sizes the first allocation.
	products := make([]domain.Product, 0, min(total, maxProductPrealloc))
	for page := 0; page < pages; page++ {
		items, err := s.api.ListProducts(ctx, header, branchID, page*pageSize, pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch product page %d: %w", page+1, err)
		}
		if len(items) == 0 {
			break
		}
		products = append(products, items...)
		s.logger.Debug("product page fetched", zap.Int("page", page+1), zap.Int("fetched", len(products)))
	}
	return products, nil
}

// withExtension swaps a configured path's extension to match format.
func withExtension(path string, format domain.ExportFormat) string {
	if path == "" {
		return path
	}
	ext := filepath.Ext(path)
	want := "." + string(format)
	if strings.EqualFold(ext, want) {
		return path
	}
	return strings.TrimSuffix(path, ext) + want
}
