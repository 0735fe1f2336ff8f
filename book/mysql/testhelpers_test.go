//go:build integration

package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
)

const (
	defaultDatabase = "my_book_api"
	defaultUser     = "books"
	defaultPassword = "books"
)

// MySQLContainer holds a running MySQL container and a repository bound to it.
type MySQLContainer struct {
	Container *tcmysql.MySQLContainer
	DSN       string
}

// SetupMySQLContainer starts a real MySQL server. The returned func terminates it.
func SetupMySQLContainer(t *testing.T, ctx context.Context) (*MySQLContainer, func()) {
	t.Helper()

	container, err := tcmysql.Run(ctx,
		"mysql:8.0",
		tcmysql.WithDatabase(defaultDatabase),
		tcmysql.WithUsername(defaultUser),
		tcmysql.WithPassword(defaultPassword),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "clientFoundRows=true")
	require.NoError(t, err)

	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return &MySQLContainer{Container: container, DSN: dsn}, cleanup
}

// CreateTestRepository opens a repository and creates the books table.
// The table is dropped and the repository closed when the test ends.
func CreateTestRepository(t *testing.T, ctx context.Context, dsn string) *Repository {
	t.Helper()

	repo, err := NewRepository(dsn)
	require.NoError(t, err)
	require.NoError(t, repo.CreateTable(ctx))
	t.Cleanup(func() {
		if err := repo.DropTable(ctx); err != nil {
			t.Logf("failed to drop books table: %v", err)
		}
		_ = repo.Close(ctx)
	})
	return repo
}

// AssertBookCount checks the number of rows in the books table.
func AssertBookCount(t *testing.T, ctx context.Context, repo *Repository, expected int64) {
	t.Helper()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, expected, n)
}
