package kafka

import (
	"time"
)

// ConsumerConfig configures the warehouse event consumer
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string

	MinBytes       int
	MaxBytes       int
	MaxWait        time.Duration
	CommitInterval time.Duration

	// StartOffset applies when the group has no committed offset.
	StartOffset int64

	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	RebalanceTimeout  time.Duration
}

// DefaultConsumerConfig returns a ConsumerConfig with sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers:           []string{"localhost:9092"},
		Topic:             "warehouse-updates",
		GroupID:           "fern-cache",
		MinBytes:          1,
		MaxBytes:          1e6,
		MaxWait:           3 * time.Second,
		CommitInterval:    time.Second,
		StartOffset:       LastOffset,
		SessionTimeout:    30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		RebalanceTimeout:  30 * time.Second,
	}
}

const (
	FirstOffset int64 = -2
	LastOffset  int64 = -1
)
