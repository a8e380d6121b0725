package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

const (
	// DefaultConfigFile is read when no --config flag is given.
	DefaultConfigFile = "kvsync.toml"

	// DefaultEnvFile is loaded into the process environment when present.
	DefaultEnvFile = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "KVSYNC_"

	// EnvEnvironment selects an overlay file: config.toml plus
	// config.<env>.toml when KVSYNC_ENV=<env>.
	EnvEnvironment = EnvPrefix + "ENV"
)

// LoadOptions controls where settings come from.
type LoadOptions struct {
	// Path is the TOML config file. Empty means DefaultConfigFile.
	Path string
	// Required makes a missing config file an error. Otherwise the
	// defaults are used.
	Required bool
	// EnvFile is a dotenv file. Empty means DefaultEnvFile; a missing
	// file is ignored.
	EnvFile string
}

// envOverride maps an environment variable onto a settings key.
type envOverride struct {
	name string
	key  string
}

// envOverrides lists the variables read after the config file. Secrets are
// expected here rather than in the file.
var envOverrides = []envOverride{
	{EnvPrefix + "API_BASE_URL", "api.base_url"},
	{EnvPrefix + "DATA_DIR", "data.dir"},
	{EnvPrefix + "CREDENTIALS_FILE", "data.credentials_file"},
	{EnvPrefix + "CHECKPOINT_FILE", "data.checkpoint_file"},
	{EnvPrefix + "LOG_LEVEL", "logging.level"},
	{EnvPrefix + "LOG_FORMAT", "logging.format"},
	{EnvPrefix + "UPLOAD_PROVIDER", "upload.provider"},
	{"AZURE_STORAGE_CONNECTION_STRING", "upload.azure_connection_string"},
	{"AZURE_STORAGE_CONTAINER", "upload.azure_container"},
	{EnvPrefix + "GCS_BUCKET", "upload.gcs_bucket"},
	{"GOOGLE_APPLICATION_CREDENTIALS", "upload.gcs_credentials_file"},
	{EnvPrefix + "REDIS_ADDR", "lock.redis_addr"},
	{EnvPrefix + "REDIS_PASSWORD", "lock.redis_password"},
	{EnvPrefix + "PUSHGATEWAY_URL", "metrics.pushgateway_url"},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadSettings builds the application settings. Sources are applied in
// order: struct defaults, the config file, the environment overlay file,
// then environment variables. The result is validated.
// Every error wraps domain.ErrConfiguration.
func LoadSettings(opts LoadOptions) (*domain.Settings, error) {
	path := opts.Path
	if path == "" {
		path = DefaultConfigFile
	}
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}

	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	settings := &domain.Settings{}
	if err := defaults.Set(settings); err != nil {
		return nil, fmt.Errorf("apply defaults: %v: %w", err, domain.ErrConfiguration)
	}

	found, err := decodeFile(path, settings)
	if err != nil {
		return nil, err
	}
	if !found && opts.Required {
		return nil, fmt.Errorf("config file not found: %s: %w", path, domain.ErrConfiguration)
	}

	if env := strings.TrimSpace(os.Getenv(EnvEnvironment)); env != "" {
		if _, err := decodeFile(OverlayPath(path, env), settings); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(settings); err != nil {
		return nil, err
	}

	if err := Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks settings against their validate tags.
func Validate(settings *domain.Settings) error {
	if err := validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s: %w", strings.Join(msgs, "; "), domain.ErrConfiguration)
		}
		return fmt.Errorf("invalid settings: %v: %w", err, domain.ErrConfiguration)
	}

	if settings.Upload.Provider == "azure" && settings.Upload.AzureConnectionString == "" {
		return fmt.Errorf("upload.azure_connection_string is required for azure upload: %w",
			domain.ErrConfiguration)
	}
	if settings.Upload.Provider == "gcs" && settings.Upload.GCSBucket == "" {
		return fmt.Errorf("upload.gcs_bucket is required for gcs upload: %w", domain.ErrConfiguration)
	}
	return nil
}

// OverlayPath returns the per-environment file next to path:
// "kvsync.toml" with env "prod" becomes "kvsync.prod.toml".
func OverlayPath(path, env string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + env + ext
}

// Marshal renders settings as TOML, for `kvsync config show`.
func Marshal(settings *domain.Settings) ([]byte, error) {
	return toml.Marshal(settings)
}

// loadEnvFile loads a dotenv file without overriding variables already set.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot read env file %s: %v: %w", path, err, domain.ErrConfiguration)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("invalid env file %s: %v: %w", path, err, domain.ErrConfiguration)
	}
	return nil
}

// decodeFile decodes path on top of settings. It reports whether the file
// exists.
func decodeFile(path string, settings *domain.Settings) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("cannot read config file %s: %v: %w", path, err, domain.ErrConfiguration)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(settings); err != nil {
		return true, fmt.Errorf("invalid config file %s: %v: %w", path, err, domain.ErrConfiguration)
	}
	return true, nil
}

func applyEnv(settings *domain.Settings) error {
	for _, o := range envOverrides {
		raw, ok := os.LookupEnv(o.name)
		if !ok || raw == "" {
			continue
		}
		if err := SetValue(settings, o.key, raw); err != nil {
			return fmt.Errorf("%s: %w", o.name, err)
		}
	}
	return nil
}

// Keys returns every dotted settings key in sorted order.
func Keys() []string {
	var keys []string
	walkFields(reflect.TypeOf(domain.Settings{}), "", func(key string, _ reflect.StructField) {
		keys = append(keys, key)
	})
	sort.Strings(keys)
	return keys
}

// CoerceValue parses raw into the Go type of the settings field named by
// key, so that it is written to the config file with the right TOML type.
func CoerceValue(key, raw string) (any, error) {
	var s domain.Settings
	field, err := lookupField(reflect.ValueOf(&s).Elem(), key)
	if err != nil {
		return nil, err
	}
	if err := setFromString(field, raw); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", key, err, domain.ErrInvalidInput)
	}
	if d, ok := field.Interface().(domain.Duration); ok {
		return d.String(), nil
	}
	return field.Interface(), nil
}

// SetValue parses raw and assigns it to the settings field named by key.
func SetValue(settings *domain.Settings, key, raw string) error {
	field, err := lookupField(reflect.ValueOf(settings).Elem(), key)
	if err != nil {
		return err
	}
	if err := setFromString(field, raw); err != nil {
		return fmt.Errorf("%s: %v: %w", key, err, domain.ErrConfiguration)
	}
	return nil
}

func walkFields(t reflect.Type, prefix string, fn func(key string, f reflect.StructField)) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := tomlName(f)
		if name == "" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			walkFields(f.Type, key, fn)
			continue
		}
		fn(key, f)
	}
}

func lookupField(v reflect.Value, key string) (reflect.Value, error) {
	for _, part := range strings.Split(key, ".") {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
		}
		next, ok := fieldByTOMLName(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
		}
		v = next
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("setting %q is a section: %w", key, domain.ErrInvalidInput)
	}
	return v, nil
}

func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if tag == "-" || !f.IsExported() {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

func setFromString(field reflect.Value, raw string) error {
	raw = strings.TrimSpace(raw)

	if field.Type() == reflect.TypeOf(domain.Duration(0)) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Float64:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list type %s", field.Type())
		}
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported type %s", field.Type())
	}
	return nil
}
