package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "local", cfg.Orchestrator.LockBackend)
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.LockWait)
	assert.Equal(t, 1, cfg.Orchestrator.BulkRefreshConcurrency)
	assert.Equal(t, 10*time.Second, cfg.Bridge.StatusTimeout)
	assert.Equal(t, 5*time.Second, cfg.Bridge.RefreshTimeout)
	assert.Equal(t, uint(3), cfg.Vultr.MaxRetries)
	assert.Equal(t, "*/15 * * * *", cfg.Sweep.BulkRefreshCron)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
database:
  host: db.internal
  name: ea
orchestrator:
  lock_backend: redis
  bulk_refresh_concurrency: 4
telegram:
  enabled: true
  chat_id: -100123
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("DATABASE_HOST", "db.override")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, "ea", cfg.Database.DBName)
	assert.Equal(t, "redis", cfg.Orchestrator.LockBackend)
	assert.Equal(t, 4, cfg.Orchestrator.BulkRefreshConcurrency)
	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, int64(-100123), cfg.Telegram.ChatID)
	assert.Equal(t, "postgres://:@db.override:0/ea?sslmode=disable", cfg.Database.MigrateURL())
}
