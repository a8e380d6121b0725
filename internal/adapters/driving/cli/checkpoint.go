package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect the invoice sync checkpoint",
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored purchase-date watermark",
	Args:  cobra.NoArgs,
	RunE:  runCheckpoint,
}

func init() {
	checkpointCmd.AddCommand(checkpointShowCmd)
	rootCmd.AddCommand(checkpointCmd)
}

func runCheckpoint(cmd *cobra.Command, _ []string) error {
	if stateService == nil {
		return errors.New("state service not configured")
	}

	cp, err := stateService.Checkpoint(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if cp.Watermark() == "" {
		cmd.Println("No checkpoint stored; the next sync fetches the default window.")
		return nil
	}
	cmd.Printf("Last purchase date: %s\n", cp.LastPurchaseDate)
	return nil
}
