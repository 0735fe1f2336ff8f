package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelsud/books-api/book"
)

// Result counts what Apply did.
type Result struct {
	Created int
	Skipped int
}

// Apply creates every book through the use case. Books whose ISBN is already
// stored are skipped, so applying the same file twice is harmless.
func Apply(ctx context.Context, uc book.UseCase, books []book.Book) (Result, error) {
	var res Result
	for _, b := range books {
		_, err := uc.Create(ctx, b)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, book.ErrDuplicateISBN):
			res.Skipped++
		default:
			return res, fmt.Errorf("creating %q: %w", b.Title, err)
		}
	}
	return res, nil
}
