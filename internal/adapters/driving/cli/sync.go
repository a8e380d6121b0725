package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

var syncFull bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise data from the POS API",
}

var syncInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Synchronise completed invoices",
	Long: `Pages through completed invoices and writes one CSV row per invoice
line. By default only invoices newer than the stored checkpoint are
fetched and rows are appended to the existing output. With --full the
checkpoint is ignored and the output file is rewritten.

This command does not take the run lock or record history; use
"kvsync run" for unattended jobs.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncInvoicesCmd.Flags().BoolVar(&syncFull, "full", false, "ignore the checkpoint and rewrite the output")
	syncCmd.AddCommand(syncInvoicesCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if invoiceSyncer == nil {
		return errors.New("sync service not configured")
	}

	result, err := invoiceSyncer.Sync(commandContext(cmd), !syncFull)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printSyncResult(cmd, result)
	if result.DetailFailures > 0 {
		log.Warn("some invoice details could not be fetched",
			zap.Int("invoices", result.DetailFailures))
	}
	return nil
}

func printSyncResult(cmd *cobra.Command, result *domain.SyncResult) {
	cmd.Printf("Invoice sync completed: invoices=%d lines=%d duration=%.1fs output=%s\n",
		result.Invoices, result.Lines, result.Duration.Seconds(), result.OutputFile)
	if result.NewestPurchaseDate != "" {
		cmd.Printf("Newest purchase date: %s\n", result.NewestPurchaseDate)
	}
	if result.CheckpointUpdated {
		cmd.Println("Checkpoint updated")
	} else {
		cmd.Println("Checkpoint unchanged")
	}
}
