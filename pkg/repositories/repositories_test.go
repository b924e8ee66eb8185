package repositories_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/repositories"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getTestDB connects to the database named by DB_* and applies db/pg.
func getTestDB(t *testing.T) database.DB {
	t.Helper()
	if testing.Short() || os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST is not set")
	}

	logger := getTestLogger()
	db, err := database.Connect(context.Background(), database.ConnectionConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     envOr("DB_PORT", "5432"),
		User:     envOr("DB_USER_NAME", "user"),
		Password: envOr("DB_PASSWORD", "password"),
		Name:     envOr("DB_NAME", "fern"),
		SSLMode:  "disable",
	}, logger)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: envOr("DB_MIGRATION_FOLDER_PATH", "../../db/pg"),
	})
	require.NoError(t, migrations.Migrate(envOr("DB_NAME", "fern"), db.Underlying().DB))
	return db
}

func TestAPIKeyRepository(t *testing.T) {
	db := getTestDB(t)
	repo := repositories.NewAPIKeyRepository(db, getTestLogger())
	ctx := context.Background()

	t.Run("unknown key", func(t *testing.T) {
		key, err := repo.Find(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Nil(t, key)
	})

	t.Run("unrestricted key", func(t *testing.T) {
		created, err := repo.Create(ctx, "test-owner", nil)
		require.NoError(t, err)
		t.Cleanup(func() { _, _ = repo.Revoke(ctx, created.Key) })

		found, err := repo.Find(ctx, created.Key)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "test-owner", found.Owner)
		assert.Nil(t, found.Endpoints)
		assert.True(t, found.Allows("/v1/kpler_trade"))
	})

	t.Run("restricted key", func(t *testing.T) {
		created, err := repo.Create(ctx, "test-owner", []string{"/v0/voyage"})
		require.NoError(t, err)
		t.Cleanup(func() { _, _ = repo.Revoke(ctx, created.Key) })

		found, err := repo.Find(ctx, created.Key)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.True(t, found.Allows("/v0/voyage"))
		assert.False(t, found.Allows("/v1/kpler_trade"))
	})

	t.Run("revoke", func(t *testing.T) {
		created, err := repo.Create(ctx, "test-owner", nil)
		require.NoError(t, err)

		revoked, err := repo.Revoke(ctx, created.Key)
		require.NoError(t, err)
		assert.True(t, revoked)

		found, err := repo.Find(ctx, created.Key)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestCacheRepository(t *testing.T) {
	db := getTestDB(t)
	repo := repositories.NewCacheRepository(db, getTestLogger())
	ctx := context.Background()

	endpoint := "/test/" + uuid.NewString()
	t.Cleanup(func() { _, _ = repo.DeleteEndpoints(ctx, []string{endpoint}) })

	entry := &cache.Entry{
		Hash:        uuid.NewString(),
		Endpoint:    endpoint,
		Params:      `{"date_from":"2022-01-01"}`,
		Status:      200,
		ContentType: "application/json",
		Body:        []byte(`{"data":[]}`),
		UpdatedOn:   time.Now().UTC().Truncate(time.Millisecond),
	}

	missing, err := repo.Get(ctx, entry.Hash)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Upsert(ctx, entry))
	got, err := repo.Get(ctx, entry.Hash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Body, got.Body)
	assert.JSONEq(t, entry.Params, got.Params)
	assert.WithinDuration(t, entry.UpdatedOn, got.UpdatedOn, time.Millisecond)

	entry.Body = []byte(`{"data":[{"value_tonne":1}]}`)
	entry.UpdatedOn = entry.UpdatedOn.Add(time.Minute)
	require.NoError(t, repo.Upsert(ctx, entry))
	got, err = repo.Get(ctx, entry.Hash)
	require.NoError(t, err)
	assert.Equal(t, entry.Body, got.Body)

	deleted, err := repo.DeleteEndpoints(ctx, []string{endpoint})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	got, err = repo.Get(ctx, entry.Hash)
	require.NoError(t, err)
	assert.Nil(t, got)
}
