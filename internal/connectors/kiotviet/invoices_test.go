package kiotviet

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

func TestListInvoices_IncrementalBody(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/invoices/list", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"Data":[
			{"Id":101,"Code":"HD101","PurchaseDate":"2024-01-02T10:00:00"},
			{"Id":102,"Code":"HD102","PurchaseDate":null}
		]}`))
	})

	invoices, err := client.ListInvoices(context.Background(), http.Header{}, driven.InvoicePageQuery{
		BranchID:         7,
		Skip:             100,
		Take:             50,
		PurchaseDateFrom: "2024-01-01T00:00:00",
		TimeRange:        "month",
	})

	require.NoError(t, err)
	assert.Equal(t, []domain.Invoice{
		{ID: 101, Code: "HD101", PurchaseDate: "2024-01-02T10:00:00"},
		{ID: 102, Code: "HD102"},
	}, invoices)

	assert.Equal(t, []any{float64(7)}, body["BranchIds"])
	assert.Equal(t, []any{float64(1)}, body["InvoiceStatus"])
	assert.Equal(t, float64(100), body["Skip"])
	assert.Equal(t, float64(50), body["Take"])
	assert.Equal(t, false, body["ForSummaryRow"])
	assert.Equal(t, "2024-01-01T00:00:00", body["PurchaseDateFrom"])
	assert.NotContains(t, body, "TimeRange")
}

func TestListInvoices_FullBody(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"Data":[]}`))
	})

	invoices, err := client.ListInvoices(context.Background(), http.Header{}, driven.InvoicePageQuery{
		BranchID:  7,
		Take:      100,
		TimeRange: "month",
	})

	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.Equal(t, "month", body["TimeRange"])
	assert.NotContains(t, body, "PurchaseDateFrom")
}

func TestListInvoices_MissingData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	invoices, err := client.ListInvoices(context.Background(), http.Header{}, driven.InvoicePageQuery{Take: 10})

	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestListInvoices_MalformedData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Data":{"Id":1}}`))
	})

	_, err := client.ListInvoices(context.Background(), http.Header{}, driven.InvoicePageQuery{Take: 10})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAPI)
	assert.Contains(t, err.Error(), "unexpected payload")
}

func TestInvoiceDetails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/invoices/101/details", r.URL.Path)
		assert.Equal(t, []string{"ProductName", "ProductCode", "SubTotal", "Product"},
			r.URL.Query()["Includes"])
		_, _ = w.Write([]byte(`{"Data":[
			{"ProductId":9,"ProductCode":"SP9","ProductName":"Banh mi","Quantity":2,"Price":15000.5,"SubTotal":"30001"},
			{"ProductCode":"SP10"}
		]}`))
	})

	lines, err := client.InvoiceDetails(context.Background(), http.Header{}, 101)

	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(9), lines[0].ProductID)
	assert.Equal(t, "Banh mi", lines[0].ProductName)
	assert.True(t, decimal.NewFromInt(2).Equal(lines[0].Quantity))
	assert.True(t, decimal.RequireFromString("15000.5").Equal(lines[0].Price))
	assert.True(t, decimal.NewFromInt(30001).Equal(lines[0].SubTotal))
	assert.True(t, lines[1].Quantity.IsZero())
}

func TestInvoiceDetails_NonListData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Data":"none"}`))
	})

	_, err := client.InvoiceDetails(context.Background(), http.Header{}, 5)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAPI)
}

func TestInvoiceDetails_InvalidID(t *testing.T) {
	client := NewClient(DefaultConfig(), nil)

	_, err := client.InvoiceDetails(context.Background(), http.Header{}, 0)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
