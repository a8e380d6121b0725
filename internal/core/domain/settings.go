package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// Duration is a time.Duration that reads and writes as a Go duration
// string ("30s", "2m") in the config file.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration in Go notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Settings is the full application configuration. It is decoded from the
// TOML config file, completed with the `default` tag values and checked
// against the `validate` tags before any service is built.
type Settings struct {
	API       APISettings       `toml:"api"`
	Data      DataSettings      `toml:"data"`
	Invoices  InvoiceSettings   `toml:"invoices"`
	Products  ProductSettings   `toml:"products"`
	Logging   LoggingSettings   `toml:"logging"`
	Upload    UploadSettings    `toml:"upload"`
	Lock      LockSettings      `toml:"lock"`
	Scheduler SchedulerSettings `toml:"scheduler"`
	Metrics   MetricsSettings   `toml:"metrics"`
}

// APISettings configures the remote gateway.
type APISettings struct {
	BaseURL    string   `toml:"base_url" default:"https://api-man1.kiotviet.vn/api" validate:"required,url"`
	Timeout    Duration `toml:"timeout" default:"30s" validate:"gt=0"`
	MaxRetries int      `toml:"max_retries" default:"3" validate:"gte=0,lte=10"`
	RetryDelay Duration `toml:"retry_delay" default:"500ms" validate:"gte=0"`
	// RequestsPerSecond throttles outgoing calls; zero disables throttling.
	RequestsPerSecond float64 `toml:"requests_per_second" default:"5" validate:"gte=0"`
	Burst             int     `toml:"burst" default:"5" validate:"gte=1"`
}

// DataSettings locates the local files the job reads and writes.
type DataSettings struct {
	Dir             string `toml:"dir" default:"data" validate:"required"`
	CredentialsFile string `toml:"credentials_file" default:"credentials/token.json" validate:"required"`
	CheckpointFile  string `toml:"checkpoint_file" default:"checkpoints/invoices_checkpoint.json" validate:"required"`
	// HistoryDir holds the SQLite run-history database.
	HistoryDir string `toml:"history_dir" default:"state"`
}

// Resolve joins a relative path onto Dir. Absolute paths are returned unchanged.
func (d DataSettings) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.Dir, path)
}

// InvoiceSettings configures the invoice sync.
type InvoiceSettings struct {
	PageSize   int    `toml:"page_size" default:"100" validate:"gte=1,lte=1000"`
	OutputFile string `toml:"output_file" default:"output/invoice_details.csv" validate:"required"`
	// TimeRange is the server-side window sent on non-incremental runs.
	TimeRange string `toml:"time_range" default:"month" validate:"required"`
}

// ProductSettings configures the catalog export.
type ProductSettings struct {
	PageSize   int      `toml:"page_size" default:"100" validate:"gte=1,lte=1000"`
	OutputFile string   `toml:"output_file" default:"output/master_products.csv" validate:"required"`
	Format     string   `toml:"format" default:"csv" validate:"oneof=csv xlsx"`
	Fields     []string `toml:"fields"`
}

// LoggingSettings configures the structured logger.
type LoggingSettings struct {
	Level      string `toml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `toml:"format" default:"console" validate:"oneof=console json"`
	OutputPath string `toml:"output_path" default:"stderr"`
}

// UploadSettings configures blob upload of produced files.
type UploadSettings struct {
	// Provider is "", "azure" or "gcs". Empty disables upload.
	Provider string `toml:"provider" validate:"omitempty,oneof=azure gcs"`
	// Prefix is prepended to every blob name.
	Prefix string `toml:"prefix"`

	AzureConnectionString string `toml:"azure_connection_string"`
	AzureContainer        string `toml:"azure_container" default:"kiotviet-data"`

	GCSBucket          string `toml:"gcs_bucket"`
	GCSCredentialsFile string `toml:"gcs_credentials_file"`
}

// Enabled returns true if an upload provider is configured.
func (u UploadSettings) Enabled() bool {
	return u.Provider != ""
}

// LockSettings configures the single-instance run lock.
type LockSettings struct {
	// RedisAddr enables the distributed lock when set.
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db" validate:"gte=0"`
	Key           string   `toml:"key" default:"kvsync:invoice-sync" validate:"required"`
	TTL           Duration `toml:"ttl" default:"5m" validate:"gt=0"`
}

// SchedulerSettings configures `kvsync schedule`.
type SchedulerSettings struct {
	Interval Duration `toml:"interval" default:"2m" validate:"gt=0"`
	// Timeout bounds a single scheduled run.
	Timeout  Duration `toml:"timeout" default:"5m" validate:"gt=0"`
	Products bool     `toml:"products"`
	Upload   bool     `toml:"upload"`
}

// MetricsSettings configures run metrics.
type MetricsSettings struct {
	// PushgatewayURL enables pushing run metrics when set.
	PushgatewayURL string `toml:"pushgateway_url" validate:"omitempty,url"`
	Job            string `toml:"job" default:"kvsync"`
}
