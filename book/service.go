package book

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

/*
 * Service is an API, so pointer semantics; Book is data, so value semantics.
 */

type UseCase interface {
	Create(ctx context.Context, book Book) (Book, error)
	List(ctx context.Context) ([]Book, error)
	Get(ctx context.Context, id int64) (Book, error)
	Update(ctx context.Context, id int64, patch Patch) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	Repo   Repository
	Events Publisher
}

// NewService wires the repository. A nil publisher disables the change feed.
func NewService(repo Repository, events Publisher) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		Repo:   repo,
		Events: events,
	}
}

// Create validates and inserts the book, returning it with the generated ID.
// The returned value is what was written; it is not re-read from storage.
func (s *Service) Create(ctx context.Context, b Book) (Book, error) {
	if err := b.Validate(); err != nil {
		return Book{}, err
	}
	b = b.normalize()
	id, err := s.Repo.Insert(ctx, b)
	if err != nil {
		return Book{}, fmt.Errorf("inserting book: %w", err)
	}
	b.ID = id
	s.publish(ctx, Event{Type: Created, BookID: id, Data: b})
	return b, nil
}

func (s *Service) List(ctx context.Context) ([]Book, error) {
	all, err := s.Repo.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("selecting books: %w", err)
	}
	return all, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	b, err := s.Repo.Select(ctx, id)
	if err != nil {
		return Book{}, fmt.Errorf("selecting book: %w", err)
	}
	return b, nil
}

// Update writes only the fields present in the patch. Blank strings count
// as absent.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	patch = patch.normalize()
	if err := s.Repo.Update(ctx, id, patch); err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	s.publish(ctx, Event{Type: Updated, BookID: id, Data: patch})
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	s.publish(ctx, Event{Type: Deleted, BookID: id})
	return nil
}

// publish never fails the caller: the database already holds the change.
func (s *Service) publish(ctx context.Context, e Event) {
	if err := s.Events.Publish(ctx, e); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("event", string(e.Type)).
			Int64("book_id", e.BookID).
			Msg("publishing book event")
	}
}
