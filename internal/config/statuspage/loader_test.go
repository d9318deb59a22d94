package statuspage_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.HTTPAddr)
	assert.Equal(t, 60*time.Second, cfg.HealthCheck.SyncInterval)
	assert.Equal(t, int64(64<<10), cfg.HealthCheck.MaxBodyBytes)
	assert.Equal(t, []string{"/metrics", "/healthz"}, cfg.Server.ExcludedLogPaths)
	assert.False(t, cfg.Kafka.Enable)
	assert.Equal(t, 5*time.Minute, cfg.Redis.SummaryTTL)
	assert.Equal(t, "status-page", cfg.App.Name)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
healthcheck:
  sync_interval: 15s
kafka:
  enable: true
  brokers: ["k1:9092", "k2:9092"]
`), 0o600))
	t.Setenv("DB_DSN", "postgres://u:p@db:5432/x")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.HealthCheck.SyncInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("HEALTHCHECK_SYNC_INTERVAL", "0s")
	_, err := Load("")
	var cerr ErrConfig
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Error(), "sync_interval")
}

func TestLoad_LogSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: WARN
  fields:
    region: eu-west-1
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.Log.Level)
	assert.Equal(t, map[string]string{"region": "eu-west-1"}, cfg.Log.Fields)
}

func TestLoad_UnknownLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load("")
	var cerr ErrConfig
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Error(), "log.level")
}
