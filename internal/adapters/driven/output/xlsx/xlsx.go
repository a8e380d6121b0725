// Package xlsx writes catalog exports as Excel workbooks.
package xlsx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// SheetName is the worksheet holding the export.
const SheetName = "Products"

// Ensure ProductSink implements the interface.
var _ driven.ProductSink = (*ProductSink)(nil)

// ProductSink writes a single-sheet workbook with a bold header row.
type ProductSink struct{}

// NewProductSink creates an XLSX product sink.
func NewProductSink() *ProductSink {
	return &ProductSink{}
}

// Format returns domain.ExportXLSX.
func (s *ProductSink) Format() domain.ExportFormat {
	return domain.ExportXLSX
}

// WriteProducts replaces the workbook at path with the export.
func (s *ProductSink) WriteProducts(ctx context.Context, path string, fields []string, products []domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(fields))
	for i, name := range fields {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if len(fields) > 0 {
		last, err := excelize.CoordinatesToCellName(len(fields), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
			return fmt.Errorf("styling header: %w", err)
		}
	}

	for i, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := cellValues(p, fields)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w: %w", err, domain.ErrConfiguration)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w: %w", path, err, domain.ErrConfiguration)
	}
	return nil
}

// cellValues keeps numbers numeric so spreadsheet formulas work on them.
func cellValues(p domain.Product, fields []string) []any {
	row := make([]any, len(fields))
	for i, name := range fields {
		if n, ok := p[name].(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				row[i] = f
				continue
			}
		}
		row[i] = p.Field(name)
	}
	return row
}
