package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// Ensure InvoiceFile implements the interface.
var _ driven.InvoiceOutput = (*InvoiceFile)(nil)

// InvoiceFile is a CSV file holding one row per invoice line.
type InvoiceFile struct {
	path string
}

// NewInvoiceFile creates an output for the CSV file at path.
func NewInvoiceFile(path string) *InvoiceFile {
	return &InvoiceFile{path: path}
}

// Path returns the file path.
func (f *InvoiceFile) Path() string {
	return f.path
}

// Exists reports whether the file is present.
func (f *InvoiceFile) Exists() (bool, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w: %w", f.path, err, domain.ErrConfiguration)
	}
	if info.IsDir() {
		return false, fmt.Errorf("output path %s is a directory: %w", f.path, domain.ErrConfiguration)
	}
	return true, nil
}

// Open creates the parent directory and opens the file for writing.
// The header row is written when truncating, or when appending to an
// empty file. File system failures wrap domain.ErrConfiguration.
func (f *InvoiceFile) Open(mode domain.WriteMode) (driven.InvoiceWriter, error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w: %w", err, domain.ErrConfiguration)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if mode == domain.WriteAppend {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(f.path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening output %s: %w: %w", f.path, err, domain.ErrConfiguration)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat output %s: %w: %w", f.path, err, domain.ErrConfiguration)
	}

	w := &invoiceWriter{file: file, csv: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := w.csv.Write(domain.InvoiceColumns); err != nil {
			file.Close()
			return nil, fmt.Errorf("writing header: %w: %w", err, domain.ErrConfiguration)
		}
	}
	return w, nil
}

type invoiceWriter struct {
	file   *os.File
	csv    *csv.Writer
	closed bool
}

func (w *invoiceWriter) Write(row domain.OutputRow) error {
	if w.closed {
		return errors.New("write on closed output")
	}
	if err := w.csv.Write(row.Record()); err != nil {
		return fmt.Errorf("writing row: %w: %w", err, domain.ErrConfiguration)
	}
	return nil
}

// Close flushes buffered rows and closes the file. It is safe to call
// more than once.
func (w *invoiceWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()

	if flushErr != nil {
		return fmt.Errorf("flushing output: %w: %w", flushErr, domain.ErrConfiguration)
	}
	if closeErr != nil {
		return fmt.Errorf("closing output: %w: %w", closeErr, domain.ErrConfiguration)
	}
	return nil
}
