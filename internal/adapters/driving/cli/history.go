package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent job runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if stateService == nil {
		return errors.New("state service not configured")
	}

	runs, err := stateService.History(commandContext(cmd), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tINVOICES\tLINES\tPRODUCTS\tDURATION\tCHECKPOINT\tERROR")
	for i := range runs {
		r := &runs[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			r.Invoices,
			r.Lines,
			r.Products,
			r.Duration().Round(100*time.Millisecond),
			r.Checkpoint,
			r.Error,
		)
	}
	return w.Flush()
}
