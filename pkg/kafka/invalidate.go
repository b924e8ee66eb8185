package kafka

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/metrics"
)

// Invalidator drops cached responses of endpoints.
type Invalidator interface {
	Invalidate(ctx context.Context, endpoints []string) (int64, error)
}

// InvalidationHandler purges the cache of every endpoint reading the updated
// dataset. Datasets no endpoint reads are ignored.
func InvalidationHandler(invalidator Invalidator, pathsReading func(dataset string) []string, logger ectologger.Logger) MessageHandler {
	return func(ctx context.Context, msg *Message) error {
		update, err := ParseDatasetUpdate(msg.Value)
		if err != nil {
			return err
		}

		paths := pathsReading(update.Dataset)
		log := logger.WithContext(ctx).WithFields(map[string]any{
			"dataset":   update.Dataset,
			"endpoints": paths,
		})
		if len(paths) == 0 {
			log.Debug("No endpoint reads dataset")
			return nil
		}

		deleted, err := invalidator.Invalidate(ctx, paths)
		if err != nil {
			return fmt.Errorf("failed to invalidate %s: %w", update.Dataset, err)
		}
		metrics.CacheInvalidationsTotal.WithLabelValues(update.Dataset).Add(float64(deleted))
		log.Infof("Invalidated %d cached responses", deleted)
		return nil
	}
}
