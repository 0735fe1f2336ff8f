package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/books-api/book"
	"github.com/marcelsud/books-api/events"
	"github.com/marcelsud/books-api/events/signature"
	"github.com/redis/go-redis/v9"
)

/* Redis Streams implementation of book.Publisher
 * Every successful write is appended to one stream as
 * {event_id, type, payload, signature}. Consumers use XREAD or their own
 * consumer groups; the stream is trimmed to roughly maxLen entries.
 */

const (
	DefaultStream = "books:events"
	DefaultMaxLen = 10000
)

type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	secret signature.Secret
}

// NewPublisher connects to Redis. An empty secret leaves events unsigned.
func NewPublisher(addr, password string, db int, stream string, secret signature.Secret) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{
		client: client,
		stream: stream,
		maxLen: DefaultMaxLen,
		secret: secret,
	}, nil
}

// Publish appends the event to the stream.
func (p *Publisher) Publish(ctx context.Context, e book.Event) error {
	payload, err := events.New(string(e.Type), events.Data(e))
	if err != nil {
		return fmt.Errorf("building payload: %w", err)
	}
	body, err := payload.Bytes()
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	id := "evt_" + uuid.NewString()
	values := map[string]any{
		"event_id": id,
		"type":     payload.Type,
		"payload":  body,
	}
	if !p.secret.IsZero() {
		sig, err := signature.Sign(p.secret, id, payload.Timestamp, body)
		if err != nil {
			return fmt.Errorf("signing event: %w", err)
		}
		values["signature"] = sig
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("adding to stream: %w", err)
	}
	return nil
}

// Len returns the number of entries currently in the stream.
func (p *Publisher) Len(ctx context.Context) (int64, error) {
	n, err := p.client.XLen(ctx, p.stream).Result()
	if err != nil {
		return 0, fmt.Errorf("getting stream length: %w", err)
	}
	return n, nil
}

// Ping checks the connection.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
