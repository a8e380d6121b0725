package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scheduleMetricsAddr string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the sync job on an interval",
	Long: `Runs the sync job every [scheduler] interval until interrupted.
Runs are incremental; a run that is still going when the next one is due
is not started twice. With --metrics-addr the Prometheus metrics are
served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleMetricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address, e.g. :9090")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	ctx := commandContext(cmd)

	if scheduleMetricsAddr != "" {
		if metricsHandler == nil {
			return errors.New("metrics not configured")
		}
		stop, err := serveMetrics(ctx, scheduleMetricsAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	cmd.Println("Scheduler started; press Ctrl+C to stop.")
	err := scheduler.Start(ctx)
	if stopErr := scheduler.Stop(); stopErr != nil {
		log.Warn("scheduler stop failed", zap.Error(stopErr))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler: %w", err)
	}
	cmd.Println("Scheduler stopped.")
	return nil
}

// serveMetrics starts the metrics endpoint and returns its shutdown func.
func serveMetrics(ctx context.Context, addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
