package metrics

import (
	"context"
	"time"
)

// Metrics is a point-in-time snapshot of the service state.
type Metrics struct {
	// Books is the number of rows in the books table
	Books int64 `json:"books"`

	// StreamLength is the number of entries in the change feed, zero when
	// no feed is configured
	StreamLength int64 `json:"stream_length"`

	Timestamp time.Time `json:"timestamp"`
}

// Collector gathers the current state on demand.
type Collector interface {
	Collect(ctx context.Context) (Metrics, error)
}
