package metrics

import (
	"context"
	"fmt"
	"time"
)

// BookCounter is satisfied by every book.Repository.
type BookCounter interface {
	Count(ctx context.Context) (int64, error)
}

// StreamCounter is satisfied by the Redis change feed publisher.
type StreamCounter interface {
	Len(ctx context.Context) (int64, error)
}

// StoreCollector reads metrics straight from storage.
type StoreCollector struct {
	books  BookCounter
	stream StreamCounter
}

// NewStoreCollector creates a collector. stream may be nil.
func NewStoreCollector(books BookCounter, stream StreamCounter) *StoreCollector {
	return &StoreCollector{
		books:  books,
		stream: stream,
	}
}

func (c *StoreCollector) Collect(ctx context.Context) (Metrics, error) {
	books, err := c.books.Count(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("counting books: %w", err)
	}

	var streamLen int64
	if c.stream != nil {
		streamLen, err = c.stream.Len(ctx)
		if err != nil {
			return Metrics{}, fmt.Errorf("getting stream length: %w", err)
		}
	}

	return Metrics{
		Books:        books,
		StreamLength: streamLen,
		Timestamp:    time.Now(),
	}, nil
}
