// Package credential checks the api_key of privileged queries.
package credential

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/params"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// APIKey grants access to endpoints. A null Endpoints grants every endpoint.
type APIKey struct {
	Key       string          `db:"key"`
	Owner     string          `db:"owner"`
	Endpoints *pq.StringArray `db:"endpoints"`
	CreatedOn time.Time       `db:"created_on"`
}

func (k *APIKey) Allows(endpoint string) bool {
	if k.Endpoints == nil {
		return true
	}
	return slices.Contains(*k.Endpoints, endpoint)
}

type Store interface {
	// Find returns nil when the key does not exist.
	Find(ctx context.Context, key string) (*APIKey, error)
}

type Gate struct {
	store  Store
	logger ectologger.Logger
}

func NewGate(store Store, logger ectologger.Logger) *Gate {
	return &Gate{store: store, logger: logger}
}

// Check admits the request when its api_key exists and covers endpoint.
func (g *Gate) Check(ctx context.Context, endpoint string, values params.Values) error {
	ctx, span := tracing.StartSpan(ctx, "Gate.Check")
	defer span.End()

	key := values.String(params.APIKey)
	if key == "" {
		return pipelineerrors.MissingCredential()
	}

	apiKey, err := g.store.Find(ctx, key)
	if err != nil {
		tracing.RecordError(span, err)
		return fmt.Errorf("failed to look up api key: %w", err)
	}
	if apiKey == nil || !apiKey.Allows(endpoint) {
		g.logger.WithContext(ctx).WithFields(map[string]any{
			"endpoint": endpoint,
			"known":    apiKey != nil,
		}).Warn("Rejected api key")
		return pipelineerrors.RejectedCredential(endpoint)
	}
	return nil
}
