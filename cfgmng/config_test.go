package cfgmng

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Database struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Retry struct {
		Attempts int           `mapstructure:"attempts"`
		Initial  time.Duration `mapstructure:"initial"`
	} `mapstructure:"retry"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: sqlite
  dsn: file:lists.db
retry:
  initial: 50ms
`)

	cfg, err := LoadConfig[testConfig](dir, "config",
		WithDefaults(map[string]any{"retry.attempts": 3}))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:lists.db", cfg.Database.DSN)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Retry.Initial)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, "database:\n  driver: sqlite\n")
	t.Setenv("LISTKIT_DATABASE_DRIVER", "cockroach")
	t.Setenv("LISTKIT_RETRY_ATTEMPTS", "7")

	cfg, err := LoadConfig[testConfig](dir, "config",
		WithEnvPrefix("LISTKIT"),
		WithDefaults(map[string]any{"retry.attempts": 3}))
	require.NoError(t, err)
	assert.Equal(t, "cockroach", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Retry.Attempts)
}

func TestLoadConfigMissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig[testConfig](dir, "config")
	assert.Error(t, err)

	cfg, err := LoadConfig[testConfig](dir, "config",
		Optional(),
		WithDefaults(map[string]any{"database.driver": "memory"}))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
}
