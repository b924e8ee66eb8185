package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "fern-api", cfg.AppName)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "db/pg", cfg.DatabaseMigrationFolderPath)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.CacheLockTimeout)
	assert.Equal(t, 2*time.Minute, cfg.CacheComputeTimeout)
	assert.Equal(t, "lowest", cfg.PricePolicy)
	assert.True(t, cfg.CacheEnabled)
	assert.False(t, cfg.MaintenanceMode)
	assert.Equal(t, 120*time.Second, cfg.HTTPWriteTimeout())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MAINTENANCE_MODE", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CACHE_LOCK_TIMEOUT", "5s")
	t.Setenv("PRICE_POLICY", "highest")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.True(t, cfg.MaintenanceMode)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.CacheLockTimeout)
	assert.Equal(t, "highest", cfg.PricePolicy)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ASSETS_LANGUAGE_DIR=/srv/language\nREDIS_DB=3\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("ASSETS_LANGUAGE_DIR")
		os.Unsetenv("REDIS_DB")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/language", cfg.LanguageDir)
	assert.Equal(t, 3, cfg.RedisDB)
}
