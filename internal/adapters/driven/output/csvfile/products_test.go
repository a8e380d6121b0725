package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

func TestProductSink_WriteProducts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "master_products.csv")
	sink := NewProductSink()
	assert.Equal(t, domain.ExportCSV, sink.Format())

	products := []domain.Product{
		{"Id": json.Number("1"), "Code": "SP01", "Name": "Cà phê"},
		{"Id": json.Number("2"), "Name": "Trà đá"},
	}

	err := sink.WriteProducts(context.Background(), path, []string{"Id", "Code", "Name"}, products)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Id", "Code", "Name"},
		{"1", "SP01", "Cà phê"},
		{"2", "", "Trà đá"},
	}, records)
}

func TestProductSink_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewProductSink().WriteProducts(ctx, filepath.Join(t.TempDir(), "p.csv"),
		[]string{"Id"}, []domain.Product{{"Id": "1"}})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestProductSink_UnwritablePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := NewProductSink().WriteProducts(context.Background(),
		filepath.Join(blocker, "master_products.csv"), []string{"Id"},
		[]domain.Product{{"Id": json.Number("1")}})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
