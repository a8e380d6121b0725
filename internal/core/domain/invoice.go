package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// CompletedInvoiceStatus is the invoice status the sync requests (completed sales).
const CompletedInvoiceStatus = 1

// Invoice is a completed sales transaction header.
// Identity is ID; PurchaseDate is the API's textual timestamp and is only
// ever compared lexicographically.
type Invoice struct {
	ID           int64
	Code         string
	PurchaseDate string
}

// InvoiceLine is one product line within an invoice.
type InvoiceLine struct {
	ProductID   int64
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	SubTotal    decimal.Decimal
}

// InvoiceColumns is the fixed header of the invoice output stream.
var InvoiceColumns = []string{
	"InvoiceId",
	"InvoiceCode",
	"PurchaseDate",
	"ProductId",
	"ProductCode",
	"ProductName",
	"Quantity",
	"Price",
	"SubTotal",
}

// OutputRow is the flattened join of an invoice header and one of its lines.
type OutputRow struct {
	Invoice Invoice
	Line    InvoiceLine
}

// NewOutputRow joins an invoice with one of its lines.
func NewOutputRow(inv Invoice, line InvoiceLine) OutputRow {
	return OutputRow{Invoice: inv, Line: line}
}

// Record returns the row in InvoiceColumns order.
func (r OutputRow) Record() []string {
	return []string{
		strconv.FormatInt(r.Invoice.ID, 10),
		r.Invoice.Code,
		r.Invoice.PurchaseDate,
		formatID(r.Line.ProductID),
		r.Line.ProductCode,
		r.Line.ProductName,
		r.Line.Quantity.String(),
		r.Line.Price.String(),
		r.Line.SubTotal.String(),
	}
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
