package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/credential"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const apiKeysTable = "api_key"

var apiKeyStruct = database.NewStruct(new(credential.APIKey))

type APIKeyRepository struct {
	*Repository
}

func NewAPIKeyRepository(db database.DB, logger ectologger.Logger) *APIKeyRepository {
	return &APIKeyRepository{Repository: NewRepository(db, logger)}
}

// Find returns nil when the key does not exist.
func (r *APIKeyRepository) Find(ctx context.Context, key string) (*credential.APIKey, error) {
	ctx, span := tracing.StartSpan(ctx, "APIKeyRepository.Find")
	defer span.End()

	sb := apiKeyStruct.SelectFrom(apiKeysTable)
	sb.Where(sb.Equal("key", key))

	query, args := sb.Build()
	var apiKey credential.APIKey
	err := r.DB().GetContext(ctx, &apiKey, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("failed to find api key")
		return nil, fmt.Errorf("failed to find api key: %w", err)
	}
	return &apiKey, nil
}

// Create issues a new key for owner. Nil endpoints grants every endpoint.
func (r *APIKeyRepository) Create(ctx context.Context, owner string, endpoints []string) (*credential.APIKey, error) {
	ctx, span := tracing.StartSpan(ctx, "APIKeyRepository.Create")
	defer span.End()

	apiKey := &credential.APIKey{
		Key:       uuid.NewString(),
		Owner:     owner,
		CreatedOn: time.Now().UTC(),
	}
	if endpoints != nil {
		allowed := pq.StringArray(endpoints)
		apiKey.Endpoints = &allowed
	}

	query, args := apiKeyStruct.InsertInto(apiKeysTable, apiKey).Build()
	if _, err := r.DB().ExecContext(ctx, query, args...); err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner": owner,
		}).Error("failed to create api key")
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"owner": owner}).Debugf("Created %s", apiKeysTable)
	return apiKey, nil
}

// Revoke deletes key and reports whether it existed.
func (r *APIKeyRepository) Revoke(ctx context.Context, key string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "APIKeyRepository.Revoke")
	defer span.End()

	del := database.NewDeleteBuilder()
	del.DeleteFrom(apiKeysTable)
	del.Where(del.Equal("key", key))

	query, args := database.Build(del)
	result, err := r.DB().ExecContext(ctx, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		return false, fmt.Errorf("failed to revoke api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to revoke api key: %w", err)
	}
	return n > 0, nil
}
