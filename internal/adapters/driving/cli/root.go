// Package cli provides the cobra command tree for kvsync.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
)

// skipBootstrap marks commands that run without loading configuration.
const skipBootstrap = "kvsync/skip-bootstrap"

// GlobalOptions holds the persistent flags.
type GlobalOptions struct {
	ConfigPath string
	EnvFile    string
	Verbose    bool
}

// Services are the driving ports the commands call. Nil entries make the
// matching commands fail with "not configured".
type Services struct {
	Syncer      driving.InvoiceSyncer
	Exporter    driving.ProductExporter
	Jobs        driving.JobRunner
	Scheduler   driving.Scheduler
	State       driving.StateService
	Credentials driving.CredentialService
	Settings    driving.SettingsService
	// Metrics serves the Prometheus registry for `schedule --metrics-addr`.
	Metrics http.Handler
	Logger  *zap.Logger
}

// Bootstrap loads configuration and builds the services for one
// invocation. The returned func releases what was opened.
type Bootstrap func(ctx context.Context, opts GlobalOptions) (*Services, func(), error)

var (
	version = "dev"

	globalOpts GlobalOptions
	bootstrap  Bootstrap
	cleanup    func()

	invoiceSyncer     driving.InvoiceSyncer
	productExporter   driving.ProductExporter
	jobRunner         driving.JobRunner
	scheduler         driving.Scheduler
	stateService      driving.StateService
	credentialService driving.CredentialService
	settingsService   driving.SettingsService
	metricsHandler    http.Handler
	log               = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "kvsync",
	Short: "Incremental KiotViet invoice sync",
	Long: `kvsync pulls completed invoices from the KiotViet retail API,
flattens them into one CSV row per invoice line and remembers the newest
purchase date so the next run only fetches what changed.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalOpts.ConfigPath, "config", "c", "kvsync.toml",
		"path to the config file")
	rootCmd.PersistentFlags().StringVar(&globalOpts.EnvFile, "env-file", ".env",
		"dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Verbose, "verbose", "v", false,
		"enable debug logging")
}

// SetVersion sets the version reported by `kvsync version`.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds services before a
// command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	invoiceSyncer = s.Syncer
	productExporter = s.Exporter
	jobRunner = s.Jobs
	scheduler = s.Scheduler
	stateService = s.State
	credentialService = s.Credentials
	settingsService = s.Settings
	metricsHandler = s.Metrics
	log = s.Logger
	if log == nil {
		log = zap.NewNop()
	}
}

// Execute runs the command tree and releases bootstrapped services.
func Execute(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// setup builds services unless the command opts out or no bootstrap is
// installed.
func setup(cmd *cobra.Command, _ []string) error {
	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}
	svcs, release, err := bootstrap(commandContext(cmd), globalOpts)
	if err != nil {
		return err
	}
	SetServices(svcs)
	cleanup = release
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
