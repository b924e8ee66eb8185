package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const endpointCacheTable = "endpoint_cache"

var cacheEntryStruct = database.NewStruct(new(cache.Entry))

var cacheUpdateColumns = []string{"endpoint", "params", "status", "content_type", "filename", "body", "updated_on"}

// CacheRepository stores rendered responses in endpoint_cache.
type CacheRepository struct {
	*Repository
}

func NewCacheRepository(db database.DB, logger ectologger.Logger) *CacheRepository {
	return &CacheRepository{Repository: NewRepository(db, logger)}
}

func (r *CacheRepository) Get(ctx context.Context, hash string) (*cache.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheRepository.Get")
	defer span.End()

	sb := cacheEntryStruct.SelectFrom(endpointCacheTable)
	sb.Where(sb.Equal("hash", hash))

	query, args := sb.Build()
	var entry cache.Entry
	err := r.DB().GetContext(ctx, &entry, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return &entry, nil
}

// Upsert writes entry, replacing the row with the same hash. A concurrent
// insert of the same hash can still surface as a unique violation, so the
// statement is retried once.
func (r *CacheRepository) Upsert(ctx context.Context, entry *cache.Entry) error {
	ctx, span := tracing.StartSpan(ctx, "CacheRepository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto(endpointCacheTable)
	ib.Cols(append([]string{"hash"}, cacheUpdateColumns...)...)
	ib.Values(
		entry.Hash, entry.Endpoint, entry.Params, entry.Status, entry.ContentType, entry.Filename, entry.Body, entry.UpdatedOn,
	)
	ib.OnConflictUpdate([]string{"hash"}, cacheUpdateColumns...)

	query, args := database.Build(ib)
	_, err := r.DB().ExecContext(ctx, query, args...)
	if database.IsUniqueViolation(err) {
		_, err = r.DB().ExecContext(ctx, query, args...)
	}
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"endpoint": entry.Endpoint,
			"hash":     entry.Hash,
		}).Error("failed to upsert cache entry")
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// DeleteEndpoints removes the entries of endpoints, or every entry when
// endpoints is empty.
func (r *CacheRepository) DeleteEndpoints(ctx context.Context, endpoints []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "CacheRepository.DeleteEndpoints")
	defer span.End()

	del := database.NewDeleteBuilder()
	del.DeleteFrom(endpointCacheTable)
	if len(endpoints) > 0 {
		del.Where(del.In("endpoint", sqlbuilder.Flatten(endpoints)...))
	}

	query, args := database.Build(del)
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"endpoints": endpoints,
		"deleted":   deleted,
	}).Debugf("Deleted from %s", endpointCacheTable)
	return deleted, nil
}
