package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
)

// mockProductAPI serves a catalog of n products.
type mockProductAPI struct {
	catalog  []domain.Product
	total    int
	countErr error
	listErr  error
	skips    []int
	takes    []int
}

func newMockProductAPI(n int) *mockProductAPI {
	catalog := make([]domain.Product, n)
	for i := range catalog {
		catalog[i] = domain.Product{
			"Id":   json.Number(fmt.Sprint(i + 1)),
			"Code": fmt.Sprintf("SP%03d", i+1),
		}
	}
	return &mockProductAPI{catalog: catalog, total: n}
}

func (m *mockProductAPI) CountProducts(_ context.Context, _ http.Header, _ int64) (int, error) {
	return m.total, m.countErr
}

func (m *mockProductAPI) ListProducts(_ context.Context, _ http.Header, _ int64, skip, take int) ([]domain.Product, error) {
	m.skips = append(m.skips, skip)
	m.takes = append(m.takes, take)
	if m.listErr != nil {
		return nil, m.listErr
	}
	if skip >= len(m.catalog) {
		return nil, nil
	}
	end := min(skip+take, len(m.catalog))
	return m.catalog[skip:end], nil
}

type mockProductSink struct {
	format   domain.ExportFormat
	path     string
	fields   []string
	products []domain.Product
	calls    int
}

func (m *mockProductSink) Format() domain.ExportFormat { return m.format }

func (m *mockProductSink) WriteProducts(_ context.Context, path string, fields []string, products []domain.Product) error {
	m.calls++
	m.path = path
	m.fields = fields
	m.products = products
	return nil
}

var (
	_ driven.ProductAPI  = (*mockProductAPI)(nil)
	_ driven.ProductSink = (*mockProductSink)(nil)
)

type exportFixture struct {
	api  *mockProductAPI
	csv  *mockProductSink
	xlsx *mockProductSink
	svc  *ProductExportService
}

func newExportFixture(n int) *exportFixture {
	f := &exportFixture{
		api:  newMockProductAPI(n),
		csv:  &mockProductSink{format: domain.ExportCSV},
		xlsx: &mockProductSink{format: domain.ExportXLSX},
	}
	f.svc = NewProductExportService(
		ProductExportConfig{PageSize: 2, OutputFile: "data/output/master_products.csv"},
		newMockCredentialsStore(), f.api, zap.NewNop(), f.csv, f.xlsx,
	)
	return f
}

func TestProductExport_AllPages(t *testing.T) {
	f := newExportFixture(5)

	result, err := f.svc.Export(context.Background(), driving.ProductExportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 5, result.Products)
	assert.Equal(t, domain.ExportCSV, result.Format)
	assert.Equal(t, "data/output/master_products.csv", result.OutputFile)
	assert.Equal(t, []int{0, 2, 4}, f.api.skips)
	assert.Equal(t, 1, f.csv.calls)
	assert.Len(t, f.csv.products, 5)
	assert.Equal(t, domain.DefaultProductFields, f.csv.fields)
	assert.Equal(t, 0, f.xlsx.calls)
}

func TestProductExport_StopsOnEmptyPage(t *testing.T) {
	f := newExportFixture(3)
	f.api.total = 10 // count disagrees with the data

	result, err := f.svc.Export(context.Background(), driving.ProductExportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Products)
	assert.Equal(t, []int{0, 2, 4}, f.api.skips)
}

func TestProductExport_HugeReportedTotal(t *testing.T) {
	f := newExportFixture(3)
	f.api.total = math.MaxInt32

	result, err := f.svc.Export(context.Background(), driving.ProductExportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Products)
	assert.Len(t, f.csv.products, 3)
	assert.Equal(t, []int{0, 2, 4}, f.api.skips)
}

func TestProductExport_EmptyCatalog(t *testing.T) {
	f := newExportFixture(0)

	result, err := f.svc.Export(context.Background(), driving.ProductExportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Products)
	assert.Empty(t, result.OutputFile)
	assert.Empty(t, f.api.skips)
	assert.Equal(t, 0, f.csv.calls)
}

func TestProductExport_Overrides(t *testing.T) {
	f := newExportFixture(3)

	result, err := f.svc.Export(context.Background(), driving.ProductExportOptions{
		PageSize:   1000,
		OutputFile: "/tmp/catalog.xlsx",
		Format:     domain.ExportXLSX,
		Fields:     []string{"Code"},
	})

	require.NoError(t, err)
	assert.Equal(t, "/tmp/catalog.xlsx", result.OutputFile)
	assert.Equal(t, []int{0}, f.api.skips)
	assert.Equal(t, []int{1000}, f.api.takes)
	assert.Equal(t, 1, f.xlsx.calls)
	assert.Equal(t, []string{"Code"}, f.xlsx.fields)
}

func TestProductExport_FormatSwapsConfiguredExtension(t *testing.T) {
	f := newExportFixture(1)

	result, err := f.svc.Export(context.Background(), driving.ProductExportOptions{Format: domain.ExportXLSX})

	require.NoError(t, err)
	assert.Equal(t, "data/output/master_products.xlsx", result.OutputFile)
}

func TestProductExport_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts driving.ProductExportOptions
		msg  string
	}{
		{"negative page size", driving.ProductExportOptions{PageSize: -1}, "page_size must be positive"},
		{"page size too large", driving.ProductExportOptions{PageSize: 1001}, "page_size cannot exceed 1000"},
		{"unknown format", driving.ProductExportOptions{Format: "json"}, "unsupported export format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExportFixture(3)

			_, err := f.svc.Export(context.Background(), tt.opts)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Empty(t, f.api.skips)
		})
	}
}

func TestProductExport_MissingSink(t *testing.T) {
	svc := NewProductExportService(ProductExportConfig{OutputFile: "p.csv"},
		newMockCredentialsStore(), newMockProductAPI(1), nil, &mockProductSink{format: domain.ExportCSV})

	_, err := svc.Export(context.Background(), driving.ProductExportOptions{Format: domain.ExportXLSX})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestProductExport_APIErrors(t *testing.T) {
	t.Run("count", func(t *testing.T) {
		f := newExportFixture(3)
		f.api.countErr = fmt.Errorf("unexpected total product value: %w", domain.ErrConfiguration)

		_, err := f.svc.Export(context.Background(), driving.ProductExportOptions{})

		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Equal(t, 0, f.csv.calls)
	})

	t.Run("page", func(t *testing.T) {
		f := newExportFixture(3)
		f.api.listErr = fmt.Errorf("unexpected payload: %w", domain.ErrAPI)

		_, err := f.svc.Export(context.Background(), driving.ProductExportOptions{})

		assert.ErrorIs(t, err, domain.ErrAPI)
		assert.Contains(t, err.Error(), "fetch product page 1")
		assert.Equal(t, 0, f.csv.calls)
	})
}

func TestProductExportConfigFromSettings(t *testing.T) {
	cfg := ProductExportConfigFromSettings(
		domain.DataSettings{Dir: "data"},
		domain.ProductSettings{PageSize: 50, OutputFile: "output/p.csv", Format: "xlsx"},
	)

	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, "data/output/p.csv", cfg.OutputFile)
	assert.Equal(t, domain.ExportXLSX, cfg.Format)
}

func TestWithExtension(t *testing.T) {
	assert.Equal(t, "out/p.xlsx", withExtension("out/p.csv", domain.ExportXLSX))
	assert.Equal(t, "out/p.CSV", withExtension("out/p.CSV", domain.ExportCSV))
	assert.Equal(t, "out/p.csv", withExtension("out/p", domain.ExportCSV))
	assert.Equal(t, "", withExtension("", domain.ExportCSV))
}
