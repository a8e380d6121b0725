package kiotviet

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

func TestCountProducts(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/branchs/7/masterproducts", r.URL.Path)
		assert.Equal(t, "ProductAttributes", r.URL.Query().Get("Includes"))
		assert.Equal(t, "true", r.URL.Query().Get("ForSummaryRow"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"Data":[{"Id":1}],"TotalProduct":250}`))
	})

	total, err := client.CountProducts(context.Background(), http.Header{}, 7)

	require.NoError(t, err)
	assert.Equal(t, 250, total)
	assert.Equal(t, float64(1), body["Take"])
	assert.Equal(t, float64(7), body["Id"])
	assert.Equal(t, true, body["IsActive"])
	assert.Equal(t, true, body["IsNewFilter"])
	assert.Equal(t, []any{"ProductAttributes"}, body["Includes"])
}

func TestCountProducts_NonInteger(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"TotalProduct":"many"}`))
	})

	_, err := client.CountProducts(context.Background(), http.Header{}, 7)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCountProducts_Missing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	total, err := client.CountProducts(context.Background(), http.Header{}, 7)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestListProducts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(200), body["Skip"])
		assert.Equal(t, float64(100), body["Take"])
		_, _ = w.Write([]byte(`{"Data":[{"Id":9007199254740993,"Code":"SP1","BasePrice":12000.5}]}`))
	})

	products, err := client.ListProducts(context.Background(), http.Header{}, 7, 200, 100)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, json.Number("9007199254740993"), products[0]["Id"])
	assert.Equal(t, "SP1", products[0]["Code"])
	assert.Equal(t, json.Number("12000.5"), products[0]["BasePrice"])
}

func TestListProducts_NonListData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Data":{"oops":true}}`))
	})

	_, err := client.ListProducts(context.Background(), http.Header{}, 7, 0, 100)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAPI)
}
