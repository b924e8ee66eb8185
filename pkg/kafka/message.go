package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMissingDataset = errors.New("dataset is required")

// DatasetUpdate announces that the warehouse refreshed a dataset.
type DatasetUpdate struct {
	Dataset   string     `json:"dataset"`
	UpdatedOn *time.Time `json:"updated_on,omitempty"`
}

// ParseDatasetUpdate decodes and validates a warehouse event.
func ParseDatasetUpdate(data []byte) (*DatasetUpdate, error) {
	var update DatasetUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return nil, fmt.Errorf("failed to parse dataset update: %w", err)
	}
	update.Dataset = strings.TrimSpace(update.Dataset)
	if update.Dataset == "" {
		return nil, ErrMissingDataset
	}
	return &update, nil
}

type Header struct {
	Key   string
	Value []byte
}

// Message is a fetched Kafka message stripped of its client type.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
}

func headerMap(headers []Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
