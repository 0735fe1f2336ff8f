//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
Test helpers backed by a real PostgreSQL container.
https://golang.testcontainers.org/modules/postgres/
*/

const (
	defaultDatabase = "testdb"
	defaultUser     = "testuser"
	defaultPassword = "testpass"
)

// PostgresContainer holds the container and a direct connection for assertions
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	ConnStr   string
}

// SetupPostgresContainer starts PostgreSQL and returns a cleanup func; register it before the repository so it runs last
func SetupPostgresContainer(tb testing.TB, ctx context.Context) (*PostgresContainer, func()) {
	tb.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(defaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(tb, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(tb, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(tb, err)
	require.NoError(tb, db.PingContext(ctx))

	container := &PostgresContainer{
		Container: pgContainer,
		DB:        db,
		ConnStr:   connStr,
	}

	cleanup := func() {
		_ = db.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return container, cleanup
}

// CreateTestRepository opens a repository and creates the books table.
// The table is dropped and the repository closed when the test ends.
func CreateTestRepository(tb testing.TB, ctx context.Context, connStr string) *Repository {
	tb.Helper()

	repo, err := NewRepository(connStr)
	require.NoError(tb, err)
	require.NoError(tb, repo.CreateTable(ctx))
	tb.Cleanup(func() {
		if err := repo.DropTable(ctx); err != nil {
			tb.Logf("failed to drop books table: %v", err)
		}
		_ = repo.Close(ctx)
	})

	return repo
}

// CleanupDatabase removes every row and resets the id sequence
func CleanupDatabase(tb testing.TB, ctx context.Context, db *sql.DB) {
	tb.Helper()

	_, err := db.ExecContext(ctx, "TRUNCATE TABLE books RESTART IDENTITY CASCADE")
	require.NoError(tb, err)
}

// AssertBookCount checks how many rows the books table holds
func AssertBookCount(tb testing.TB, ctx context.Context, db *sql.DB, expected int) {
	tb.Helper()

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&count)
	require.NoError(tb, err)
	require.Equal(tb, expected, count)
}
