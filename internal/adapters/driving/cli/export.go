package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
)

var exportOpts struct {
	pageSize int
	output   string
	format   string
	fields   []string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reference data",
}

var exportProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Export the master product catalog",
	Long: `Fetches every page of the product catalog and writes the selected
fields as CSV or XLSX. Flags override the [products] config section.`,
	Args: cobra.NoArgs,
	RunE: runExportProducts,
}

func init() {
	f := exportProductsCmd.Flags()
	f.IntVar(&exportOpts.pageSize, "page-size", 0, "products per request (max 1000)")
	f.StringVarP(&exportOpts.output, "output", "o", "", "output file")
	f.StringVar(&exportOpts.format, "format", "", "output format: csv or xlsx")
	f.StringSliceVar(&exportOpts.fields, "fields", nil, "comma-separated fields to export")

	exportCmd.AddCommand(exportProductsCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExportProducts(cmd *cobra.Command, _ []string) error {
	if productExporter == nil {
		return errors.New("export service not configured")
	}

	format := domain.ExportFormat(strings.ToLower(exportOpts.format))
	if format != "" && !format.IsValid() {
		return fmt.Errorf("unsupported format %q: use csv or xlsx", exportOpts.format)
	}

	result, err := productExporter.Export(commandContext(cmd), driving.ProductExportOptions{
		PageSize:   exportOpts.pageSize,
		OutputFile: exportOpts.output,
		Format:     format,
		Fields:     exportOpts.fields,
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if result.Products == 0 {
		cmd.Println("No products returned; nothing written.")
		return nil
	}
	cmd.Printf("Product export completed: products=%d duration=%.1fs output=%s\n",
		result.Products, result.Duration.Seconds(), result.OutputFile)
	return nil
}
