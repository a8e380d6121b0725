package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/adapters/driven/lock/local"
	"github.com/kiotviet-integration/kvsync/internal/adapters/driving/cli"
	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// writeConfig writes content to a temp config file and returns its
// directory and matching options.
func writeConfig(t *testing.T, content string) (string, cli.GlobalOptions) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return dir, cli.GlobalOptions{ConfigPath: path, EnvFile: filepath.Join(dir, ".env")}
}

func TestBuild_WiresServices(t *testing.T) {
	_, opts := writeConfig(t, `
[data]
dir = "`+filepath.ToSlash(t.TempDir())+`"

[logging]
level = "warn"
`)

	svcs, release, err := Build(context.Background(), opts)
	require.NoError(t, err)
	defer release()

	assert.NotNil(t, svcs.Syncer)
	assert.NotNil(t, svcs.Exporter)
	assert.NotNil(t, svcs.Jobs)
	assert.NotNil(t, svcs.Scheduler)
	assert.NotNil(t, svcs.State)
	assert.NotNil(t, svcs.Credentials)
	assert.NotNil(t, svcs.Settings)
	assert.NotNil(t, svcs.Metrics)
	assert.NotNil(t, svcs.Logger)

	assert.Equal(t, opts.ConfigPath, svcs.Settings.Path())
	assert.Equal(t, "warn", svcs.Settings.Effective().Logging.Level)

	cp, err := svcs.State.Checkpoint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", cp.Watermark())

	runs, err := svcs.State.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestBuild_MissingExplicitConfig(t *testing.T) {
	opts := cli.GlobalOptions{
		ConfigPath: filepath.Join(t.TempDir(), "absent.toml"),
		EnvFile:    filepath.Join(t.TempDir(), ".env"),
	}

	_, _, err := Build(context.Background(), opts)

	require.Error(t, err)
}

func TestBuild_InvalidConfig(t *testing.T) {
	_, opts := writeConfig(t, `
[invoices]
page_size = 0
`)

	_, _, err := Build(context.Background(), opts)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBuild_UploadMisconfigured(t *testing.T) {
	_, opts := writeConfig(t, `
[data]
dir = "`+filepath.ToSlash(t.TempDir())+`"

[upload]
provider = "azure"
azure_connection_string = "not a connection string"
`)

	_, _, err := Build(context.Background(), opts)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewRunLock_LocalByDefault(t *testing.T) {
	l, closer, err := newRunLock(context.Background(), domain.LockSettings{}, zap.NewNop())

	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &local.Lock{}, l)
}

func TestNewRunLock_RedisUnreachable(t *testing.T) {
	s := domain.LockSettings{RedisAddr: "127.0.0.1:1", TTL: domain.Duration(60e9)}

	_, _, err := newRunLock(context.Background(), s, zap.NewNop())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewUploader(t *testing.T) {
	u, closer, err := newUploader(context.Background(), domain.UploadSettings{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Nil(t, closer)

	u, closer, err = newUploader(context.Background(), domain.UploadSettings{
		Provider:              "azure",
		AzureConnectionString: "DefaultEndpointsProtocol=https;AccountName=kvsync;AccountKey=a2V5;EndpointSuffix=core.windows.net",
		AzureContainer:        "kiotviet-data",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "azure", u.Name())
	assert.Nil(t, closer)

	_, _, err = newUploader(context.Background(), domain.UploadSettings{Provider: "s3"}, zap.NewNop())
	assert.Error(t, err)
}
