package domain

import "time"

// Checkpoint is the persisted watermark: the greatest purchase date
// successfully processed by a completed run.
type Checkpoint struct {
	LastPurchaseDate string `json:"last_purchase_date"`
}

// After reports whether candidate is strictly newer than the checkpoint.
// A nil or empty checkpoint is older than any non-empty candidate.
func (c *Checkpoint) After(candidate string) bool {
	if candidate == "" {
		return false
	}
	if c == nil || c.LastPurchaseDate == "" {
		return true
	}
	return candidate > c.LastPurchaseDate
}

// Watermark returns the stored purchase date, or "" for a nil checkpoint.
func (c *Checkpoint) Watermark() string {
	if c == nil {
		return ""
	}
	return c.LastPurchaseDate
}

// WriteMode controls how the invoice output file is opened.
type WriteMode int

const (
	// WriteTruncate starts a fresh file with a header row.
	WriteTruncate WriteMode = iota
	// WriteAppend adds rows to an existing file without a header.
	WriteAppend
)

// String returns the mode name.
func (m WriteMode) String() string {
	if m == WriteAppend {
		return "append"
	}
	return "truncate"
}

// SyncResult summarises one invoice synchronization run.
type SyncResult struct {
	// Invoices is the number of distinct invoices processed.
	Invoices int
	// Lines is the number of output rows written.
	Lines int
	// NewestPurchaseDate is the greatest purchase date seen, or the
	// starting watermark when nothing newer was found.
	NewestPurchaseDate string
	// OutputFile is the invoice output path.
	OutputFile string
	// Duration is the wall-clock run time.
	Duration time.Duration
	// Incremental is true when the run filtered against a watermark.
	Incremental bool
	// CheckpointUpdated is true when the watermark advanced.
	CheckpointUpdated bool
	// DetailFailures counts invoices whose line details could not be
	// fetched and were written with zero lines.
	DetailFailures int
}

// ProductExportResult summarises a catalog export.
type ProductExportResult struct {
	Products   int
	OutputFile string
	Format     ExportFormat
	Duration   time.Duration
}

// ExportFormat is the product export file format.
type ExportFormat string

// Supported export formats.
const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// IsValid returns true if the format is supported.
func (f ExportFormat) IsValid() bool {
	return f == ExportCSV || f == ExportXLSX
}

// Product is one catalog record as returned by the API. Values keep their
// decoded JSON shape; the export picks the configured fields.
type Product map[string]any

// DefaultProductFields are the catalog columns exported when none are configured.
var DefaultProductFields = []string{
	"Id",
	"ProductId",
	"MasterCode",
	"Code",
	"Barcode",
	"Name",
	"FullName",
	"CategoryName",
	"CategoryNameTree",
	"BasePrice",
	"Cost",
	"LatestPurchasePrice",
	"OnHand",
	"OnOrder",
	"ProductImage",
	"CreatedDate",
}

// RunStatus is the terminal state of a recorded run.
type RunStatus string

// Run statuses.
const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// SyncRun is a history record of one job invocation.
type SyncRun struct {
	ID          string
	Incremental bool
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      RunStatus
	Invoices    int
	Lines       int
	Products    int
	// Checkpoint is the watermark after the run.
	Checkpoint string
	Error      string
	// Uploads lists the blob URLs produced by the run.
	Uploads []string
}

// Duration returns how long the run took.
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
