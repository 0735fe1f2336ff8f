package book

import "context"

/* Small interfaces, composed.
 * Each method maps to exactly one SQL statement.
 */

type Reader interface {
	Select(ctx context.Context, id int64) (Book, error)
	SelectAll(ctx context.Context) ([]Book, error)
	Count(ctx context.Context) (int64, error)
}

type Writer interface {
	Insert(ctx context.Context, book Book) (int64, error)
	Update(ctx context.Context, id int64, patch Patch) error
	Delete(ctx context.Context, id int64) error
}

type Repository interface {
	Reader
	Writer
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
