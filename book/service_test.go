package book_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/marcelsud/books-api/book"
	"github.com/marcelsud/books-api/book/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		b := book.Book{
			Title:         "Foundation",
			Author:        "Isaac Asimov",
			PublishedYear: ptr(1951),
			ISBN:          ptr("9780553293357"),
		}
		repo := mocks.NewRepository(t)
		repo.On("Insert", ctx, b).Return(int64(1), nil)
		events := mocks.NewPublisher(t)
		events.On("Publish", ctx, mock.MatchedBy(func(e book.Event) bool {
			return e.Type == book.Created && e.BookID == 1
		})).Return(nil)
		s := book.NewService(repo, events)
		saved, err := s.Create(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, int64(1), saved.ID)
		assert.Equal(t, "Foundation", saved.Title)
		assert.Equal(t, 1951, *saved.PublishedYear)
	})
	t.Run("missing title", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		s := book.NewService(repo, nil)
		_, err := s.Create(ctx, book.Book{Title: "  ", Author: "Isaac Asimov"})
		assert.ErrorIs(t, err, book.ErrInvalidBook)
		repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})
	t.Run("missing author", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		s := book.NewService(repo, nil)
		_, err := s.Create(ctx, book.Book{Title: "Foundation"})
		assert.ErrorIs(t, err, book.ErrInvalidBook)
	})
	t.Run("blank isbn is stored as null", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		repo.On("Insert", ctx, book.Book{Title: "Dune", Author: "Frank Herbert"}).Return(int64(7), nil)
		s := book.NewService(repo, nil)
		saved, err := s.Create(ctx, book.Book{Title: "Dune", Author: "Frank Herbert", ISBN: ptr("")})
		require.NoError(t, err)
		assert.Equal(t, int64(7), saved.ID)
		assert.Nil(t, saved.ISBN)
	})
	t.Run("duplicate isbn", func(t *testing.T) {
		b := book.Book{Title: "Dune", Author: "Frank Herbert", ISBN: ptr("123")}
		repo := mocks.NewRepository(t)
		repo.On("Insert", ctx, b).Return(int64(0), book.ErrDuplicateISBN)
		s := book.NewService(repo, nil)
		saved, err := s.Create(ctx, b)
		assert.ErrorIs(t, err, book.ErrDuplicateISBN)
		assert.Empty(t, saved)
	})
	t.Run("publish failure does not fail the request", func(t *testing.T) {
		b := book.Book{Title: "Dune", Author: "Frank Herbert"}
		repo := mocks.NewRepository(t)
		repo.On("Insert", ctx, b).Return(int64(3), nil)
		events := mocks.NewPublisher(t)
		events.On("Publish", ctx, mock.Anything).Return(fmt.Errorf("redis down"))
		s := book.NewService(repo, events)
		saved, err := s.Create(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, int64(3), saved.ID)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		repo.On("Select", ctx, int64(1)).Return(book.Book{ID: 1, Title: "Dune", Author: "Frank Herbert"}, nil)
		s := book.NewService(repo, nil)
		b, err := s.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Dune", b.Title)
	})
	t.Run("not found", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		repo.On("Select", ctx, int64(9)).Return(book.Book{}, book.ErrNotFound)
		s := book.NewService(repo, nil)
		_, err := s.Get(ctx, 9)
		assert.ErrorIs(t, err, book.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewRepository(t)
	repo.On("SelectAll", ctx).Return([]book.Book{{ID: 1}, {ID: 2}}, nil)
	s := book.NewService(repo, nil)
	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	t.Run("only supplied fields", func(t *testing.T) {
		p := book.Patch{Author: ptr("Frank Herbert")}
		repo := mocks.NewRepository(t)
		repo.On("Update", ctx, int64(1), p).Return(nil)
		events := mocks.NewPublisher(t)
		events.On("Publish", ctx, book.Event{Type: book.Updated, BookID: 1, Data: p}).Return(nil)
		s := book.NewService(repo, events)
		assert.NoError(t, s.Update(ctx, 1, p))
	})
	t.Run("empty patch", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		s := book.NewService(repo, nil)
		assert.ErrorIs(t, s.Update(ctx, 1, book.Patch{}), book.ErrEmptyPatch)
	})
	t.Run("blank title only", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		s := book.NewService(repo, nil)
		assert.ErrorIs(t, s.Update(ctx, 1, book.Patch{Title: ptr("")}), book.ErrEmptyPatch)
	})
	t.Run("blank fields are not supplied", func(t *testing.T) {
		want := book.Patch{Author: ptr("Q")}
		repo := mocks.NewRepository(t)
		repo.On("Update", ctx, int64(1), want).Return(nil)
		events := mocks.NewPublisher(t)
		events.On("Publish", ctx, book.Event{Type: book.Updated, BookID: 1, Data: want}).Return(nil)
		s := book.NewService(repo, events)
		assert.NoError(t, s.Update(ctx, 1, book.Patch{Title: ptr(""), Author: ptr("Q"), ISBN: ptr("")}))
	})
	t.Run("zero year is supplied", func(t *testing.T) {
		p := book.Patch{PublishedYear: ptr(0)}
		repo := mocks.NewRepository(t)
		repo.On("Update", ctx, int64(1), p).Return(nil)
		s := book.NewService(repo, nil)
		assert.NoError(t, s.Update(ctx, 1, p))
	})
	t.Run("not found", func(t *testing.T) {
		p := book.Patch{Title: ptr("Dune")}
		repo := mocks.NewRepository(t)
		repo.On("Update", ctx, int64(42), p).Return(book.ErrNotFound)
		s := book.NewService(repo, nil)
		assert.ErrorIs(t, s.Update(ctx, 42, p), book.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		repo.On("Delete", ctx, int64(1)).Return(nil)
		events := mocks.NewPublisher(t)
		events.On("Publish", ctx, book.Event{Type: book.Deleted, BookID: 1}).Return(nil)
		s := book.NewService(repo, events)
		assert.NoError(t, s.Delete(ctx, 1))
	})
	t.Run("not found", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		repo.On("Delete", ctx, int64(2)).Return(book.ErrNotFound)
		s := book.NewService(repo, nil)
		assert.ErrorIs(t, s.Delete(ctx, 2), book.ErrNotFound)
	})
}
