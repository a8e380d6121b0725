package driven

import (
	"context"
	"net/http"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// InvoicePageQuery selects one page of completed invoices.
type InvoicePageQuery struct {
	BranchID int64
	Skip     int
	Take     int
	// PurchaseDateFrom restricts the page to invoices from this date on.
	// Set only on incremental runs.
	PurchaseDateFrom string
	// TimeRange is the server-side window used when PurchaseDateFrom is empty.
	TimeRange string
}

// InvoiceAPI reads invoices from the remote POS API.
// Errors wrap domain.ErrAuthentication, domain.ErrRateLimited or domain.ErrAPI.
type InvoiceAPI interface {
	// ListInvoices returns one page of invoice headers in server order.
	ListInvoices(ctx context.Context, header http.Header, query InvoicePageQuery) ([]domain.Invoice, error)

	// InvoiceDetails returns the product lines of one invoice.
	InvoiceDetails(ctx context.Context, header http.Header, invoiceID int64) ([]domain.InvoiceLine, error)
}

// ProductAPI reads the master product catalog of a branch.
type ProductAPI interface {
	// CountProducts returns the total number of catalog products.
	CountProducts(ctx context.Context, header http.Header, branchID int64) (int, error)

	// ListProducts returns one page of catalog products.
	ListProducts(ctx context.Context, header http.Header, branchID int64, skip, take int) ([]domain.Product, error)
}
