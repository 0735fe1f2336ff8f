package book

import "context"

// EventType names a change to the books table, e.g. "book.created".
type EventType string

const (
	Created EventType = "book.created"
	Updated EventType = "book.updated"
	Deleted EventType = "book.deleted"
)

// Event describes a successful write. Data is what subscribers receive.
type Event struct {
	Type   EventType
	BookID int64
	Data   any
}

// Publisher announces book changes to the outside world.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no change feed is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
