package kiotviet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

const (
	invoiceListPath = "/invoices/list"
)

// detailIncludes are the related fields requested with invoice details.
var detailIncludes = []string{"ProductName", "ProductCode", "SubTotal", "Product"}

// invoiceListRequest is the body of POST /invoices/list.
type invoiceListRequest struct {
	BranchIDs        []int64 `json:"BranchIds"`
	InvoiceStatus    []int   `json:"InvoiceStatus"`
	Skip             int     `json:"Skip"`
	Take             int     `json:"Take"`
	ForSummaryRow    bool    `json:"ForSummaryRow"`
	PurchaseDateFrom string  `json:"PurchaseDateFrom,omitempty"`
	TimeRange        string  `json:"TimeRange,omitempty"`
}

type invoiceRecord struct {
	ID           int64  `json:"Id"`
	Code         string `json:"Code"`
	PurchaseDate string `json:"PurchaseDate"`
}

type invoiceDetailRecord struct {
	ProductID   int64           `json:"ProductId"`
	ProductCode string          `json:"ProductCode"`
	ProductName string          `json:"ProductName"`
	Quantity    decimal.Decimal `json:"Quantity"`
	Price       decimal.Decimal `json:"Price"`
	SubTotal    decimal.Decimal `json:"SubTotal"`
}

// envelope is the common response shape: the records live under Data.
type envelope struct {
	Data json.RawMessage `json:"Data"`
}

// ListInvoices returns one page of completed invoices for a branch.
func (c *Client) ListInvoices(
	ctx context.Context,
	header http.Header,
	query driven.InvoicePageQuery,
) ([]domain.Invoice, error) {
	body := invoiceListRequest{
		BranchIDs:     []int64{query.BranchID},
		InvoiceStatus: []int{domain.CompletedInvoiceStatus},
		Skip:          query.Skip,
		Take:          query.Take,
		ForSummaryRow: false,
	}
	if query.PurchaseDateFrom != "" {
		body.PurchaseDateFrom = query.PurchaseDateFrom
	} else {
		body.TimeRange = query.TimeRange
	}

	raw, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   invoiceListPath,
		Header: header,
		Query:  url.Values{"format": {"json"}},
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var records []invoiceRecord
	if err := decodeData(raw, &records); err != nil {
		return nil, payloadError(http.MethodPost, invoiceListPath, "invoice list", err)
	}

	invoices := make([]domain.Invoice, 0, len(records))
	for _, r := range records {
		invoices = append(invoices, domain.Invoice{
			ID:           r.ID,
			Code:         r.Code,
			PurchaseDate: r.PurchaseDate,
		})
	}
	return invoices, nil
}

// InvoiceDetails returns the product lines of one invoice.
// A response without Data yields no lines.
func (c *Client) InvoiceDetails(
	ctx context.Context,
	header http.Header,
	invoiceID int64,
) ([]domain.InvoiceLine, error) {
	if invoiceID <= 0 {
		return nil, fmt.Errorf("invoice id %d: %w", invoiceID, domain.ErrInvalidInput)
	}

	path := fmt.Sprintf("/invoices/%d/details", invoiceID)
	raw, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   path,
		Header: header,
		Query: url.Values{
			"format":   {"json"},
			"Includes": detailIncludes,
		},
	})
	if err != nil {
		return nil, err
	}

	var records []invoiceDetailRecord
	if err := decodeData(raw, &records); err != nil {
		return nil, payloadError(http.MethodGet, path, "invoice details", err)
	}

	lines := make([]domain.InvoiceLine, 0, len(records))
	for _, r := range records {
		lines = append(lines, domain.InvoiceLine{
			ProductID:   r.ProductID,
			ProductCode: r.ProductCode,
			ProductName: r.ProductName,
			Quantity:    r.Quantity,
			Price:       r.Price,
			SubTotal:    r.SubTotal,
		})
	}
	return lines, nil
}

// decodeData decodes the Data member of an object response into out.
// A missing or null Data leaves out untouched.
func decodeData(raw json.RawMessage, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	return decodeMember(env.Data, out)
}

// decodeMember decodes a Data member already split from its envelope.
// Untyped numbers are kept as json.Number so identifiers and amounts
// reach the output files unrounded.
func decodeMember(data json.RawMessage, out any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode Data: %w", err)
	}
	return nil
}
