package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "harvest.db", cfg.Store.Path)

	assert.Equal(t, 1_800_000.0, cfg.Acquire.VolumeCapKB)
	assert.Equal(t, 3660, cfg.Acquire.CooldownSecs)
	assert.Equal(t, 1, cfg.Acquire.SearchRetries)
	assert.Equal(t, 30.0, cfg.Acquire.SearchesPerMinute)
	assert.Equal(t, []string{"Annual/10K Report", "10K or Int'l Equivalent"}, cfg.Acquire.DocTypeAllowlist)

	assert.Equal(t, "zips", cfg.Reconcile.ZipsDir)
	assert.Equal(t, "folders", cfg.Reconcile.FoldersDir)
	assert.Len(t, cfg.Reconcile.ValidDocTypes, 3)

	assert.Equal(t, "annual report", cfg.Verify.DocTypePhrase)
	assert.Equal(t, 70.0, cfg.Verify.DocTypeThreshold)
	assert.Equal(t, 80.0, cfg.Verify.NameThreshold)
	assert.Equal(t, 80.0, cfg.Verify.YearThreshold)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HARVEST_STORE_DRIVER", "postgres")
	t.Setenv("HARVEST_STORE_DATABASE_URL", "postgres://localhost/harvest")
	t.Setenv("HARVEST_ACQUIRE_VOLUME_CAP_KB", "500000")
	t.Setenv("HARVEST_ACQUIRE_DRIVER_URL", "http://localhost:9515")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/harvest", cfg.Store.DatabaseURL)
	assert.Equal(t, 500000.0, cfg.Acquire.VolumeCapKB)
	assert.Equal(t, "http://localhost:9515", cfg.Acquire.DriverURL)
}

func TestAcquireConfig_Durations(t *testing.T) {
	cfg := AcquireConfig{CooldownSecs: 3660, DownloadTimeoutSecs: 900}
	assert.Equal(t, 61*time.Minute, cfg.Cooldown())
	assert.Equal(t, 15*time.Minute, cfg.DownloadTimeout())
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
