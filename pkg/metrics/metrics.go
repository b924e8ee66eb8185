// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks served requests by endpoint and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "status_code"},
	)

	// HTTPRequestDuration tracks request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	// PipelineStageDuration tracks each pipeline stage
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of query pipeline stages in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"endpoint", "stage"},
	)

	// DroppedTokensTotal tracks aggregate_by tokens ignored by an endpoint
	DroppedTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "pipeline",
			Name:      "dropped_tokens_total",
			Help:      "Total number of unknown or inapplicable aggregate_by tokens",
		},
		[]string{"endpoint"},
	)

	// PricesSelected tracks how many (fact, scenario) prices a request chose
	PricesSelected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "pricing",
			Name:      "selected_prices",
			Help:      "Number of prices selected per request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"endpoint"},
	)

	// WarehouseQueryDuration tracks warehouse query duration
	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "warehouse",
			Name:      "query_duration_seconds",
			Help:      "Duration of warehouse queries in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "query"},
	)

	// CacheLookupsTotal tracks endpoint cache lookups by result
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of endpoint cache lookups by result",
		},
		[]string{"endpoint", "result"},
	)

	// CacheWritesTotal tracks endpoint cache writes by status
	CacheWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Total number of endpoint cache writes by status",
		},
		[]string{"endpoint", "status"},
	)

	// CacheInvalidationsTotal tracks cache rows purged per dataset
	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "cache",
			Name:      "invalidated_rows_total",
			Help:      "Total number of cache rows invalidated by dataset",
		},
		[]string{"dataset"},
	)

	// KafkaMessagesConsumed tracks consumed warehouse events
	KafkaMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Total number of Kafka messages consumed",
		},
		[]string{"topic", "status"},
	)

	// RedisOperationDuration tracks Redis operation duration
	RedisOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Duration of Redis operations in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"operation"},
	)
)

// RecordHTTPRequest records a served request
func RecordHTTPRequest(endpoint, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(endpoint, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordStage records a pipeline stage duration
func RecordStage(endpoint, stage string, durationSeconds float64) {
	PipelineStageDuration.WithLabelValues(endpoint, stage).Observe(durationSeconds)
}

// RecordWarehouseQuery records a warehouse query duration
func RecordWarehouseQuery(endpoint, query string, durationSeconds float64) {
	WarehouseQueryDuration.WithLabelValues(endpoint, query).Observe(durationSeconds)
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(endpoint, result).Inc()
}

// RecordCacheWrite records a cache write
func RecordCacheWrite(endpoint, status string) {
	CacheWritesTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordKafkaMessage records a consumed Kafka message
func RecordKafkaMessage(topic, status string) {
	KafkaMessagesConsumed.WithLabelValues(topic, status).Inc()
}

// RecordRedisOperation records a Redis operation duration
func RecordRedisOperation(operation string, durationSeconds float64) {
	RedisOperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}
