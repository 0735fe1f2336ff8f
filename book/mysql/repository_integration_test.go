//go:build integration

package mysql

import (
	"context"
	"testing"

	"github.com/marcelsud/books-api/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
Runs against a real MySQL started by testcontainers.

	go test -tags=integration ./book/mysql/...
*/

func TestMySQLRepository_Integration(t *testing.T) {
	ctx := context.Background()
	container, cleanup := SetupMySQLContainer(t, ctx)
	t.Cleanup(cleanup)

	repo := CreateTestRepository(t, ctx, container.DSN)
	year, isbn := 2020, "123"

	var id int64
	t.Run("insert and select round trip", func(t *testing.T) {
		var err error
		id, err = repo.Insert(ctx, book.Book{Title: "A", Author: "B", PublishedYear: &year, ISBN: &isbn})
		require.NoError(t, err)
		assert.Greater(t, id, int64(0))

		saved, err := repo.Select(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, book.Book{ID: id, Title: "A", Author: "B", PublishedYear: &year, ISBN: &isbn}, saved)
		AssertBookCount(t, ctx, repo, 1)
	})

	t.Run("duplicate isbn is rejected", func(t *testing.T) {
		_, err := repo.Insert(ctx, book.Book{Title: "C", Author: "D", ISBN: &isbn})
		assert.ErrorIs(t, err, book.ErrDuplicateISBN)
		AssertBookCount(t, ctx, repo, 1)
	})

	t.Run("several books without isbn", func(t *testing.T) {
		_, err := repo.Insert(ctx, book.Book{Title: "E", Author: "F"})
		require.NoError(t, err)
		_, err = repo.Insert(ctx, book.Book{Title: "G", Author: "H"})
		require.NoError(t, err)
		AssertBookCount(t, ctx, repo, 3)
	})

	t.Run("partial update keeps other columns", func(t *testing.T) {
		author := "New Author"
		require.NoError(t, repo.Update(ctx, id, book.Patch{Author: &author}))

		saved, err := repo.Select(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "New Author", saved.Author)
		assert.Equal(t, "A", saved.Title)
		assert.Equal(t, year, *saved.PublishedYear)
		assert.Equal(t, isbn, *saved.ISBN)
	})

	t.Run("update with identical values still matches the row", func(t *testing.T) {
		author := "New Author"
		assert.NoError(t, repo.Update(ctx, id, book.Patch{Author: &author}))
	})

	t.Run("update missing book", func(t *testing.T) {
		title := "X"
		assert.ErrorIs(t, repo.Update(ctx, 99999, book.Patch{Title: &title}), book.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, id))
		_, err := repo.Select(ctx, id)
		assert.ErrorIs(t, err, book.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, id), book.ErrNotFound)
	})
}
