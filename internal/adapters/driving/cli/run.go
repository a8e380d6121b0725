package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
)

var runOpts struct {
	full     bool
	products bool
	upload   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync job once",
	Long: `Runs the invoice sync under the single-instance lock, optionally
followed by the product export and an upload of the produced files.
Every run is recorded in history.`,
	Args: cobra.NoArgs,
	RunE: runJob,
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runOpts.full, "full", false, "ignore the checkpoint and rewrite the output")
	f.BoolVar(&runOpts.products, "products", false, "also export the product catalog")
	f.BoolVar(&runOpts.upload, "upload", false, "upload produced files to blob storage")
	rootCmd.AddCommand(runCmd)
}

func runJob(cmd *cobra.Command, _ []string) error {
	if jobRunner == nil {
		return errors.New("job runner not configured")
	}

	run, err := jobRunner.Run(commandContext(cmd), driving.JobOptions{
		Incremental: !runOpts.full,
		Products:    runOpts.products,
		Upload:      runOpts.upload,
	})
	if errors.Is(err, domain.ErrSyncInProgress) {
		cmd.Println("Another sync is already running; nothing to do.")
		return nil
	}
	if run != nil {
		printRun(cmd, run)
	}
	if err != nil {
		return fmt.Errorf("job failed: %w", err)
	}
	return nil
}

func printRun(cmd *cobra.Command, run *domain.SyncRun) {
	cmd.Printf("Run %s %s: invoices=%d lines=%d products=%d duration=%.1fs\n",
		run.ID, run.Status, run.Invoices, run.Lines, run.Products, run.Duration().Seconds())
	if run.Checkpoint != "" {
		cmd.Printf("Checkpoint: %s\n", run.Checkpoint)
	}
	if len(run.Uploads) > 0 {
		cmd.Printf("Uploaded: %s\n", strings.Join(run.Uploads, ", "))
	}
}
