//go:build integration

package redis_test

import (
	"context"
	"strings"
	"testing"

	"github.com/marcelsud/books-api/events/redis"
	"github.com/marcelsud/books-api/events/signature"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// SetupRedisContainer starts Redis and returns its host:port.
func SetupRedisContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	container, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get Redis connection string")

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}
	return strings.TrimPrefix(addr, "redis://"), cleanup
}

func CreateTestPublisher(t *testing.T, addr, stream string, secret signature.Secret) *redis.Publisher {
	t.Helper()

	p, err := redis.NewPublisher(addr, "", 0, stream, secret)
	require.NoError(t, err, "failed to create publisher")
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// ReadStream returns every entry of the stream, oldest first.
func ReadStream(t *testing.T, addr, stream string) []goredis.XMessage {
	t.Helper()

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()

	msgs, err := client.XRange(context.Background(), stream, "-", "+").Result()
	require.NoError(t, err)
	return msgs
}
