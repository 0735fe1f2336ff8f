package book

import (
	"errors"
	"fmt"
	"strings"
)

/* Book is the business representation of a row in the books table.
 * No tags: the web and storage layers have their own representations.
 * Nullable columns are pointers, nil meaning NULL.
 */
type Book struct {
	ID            int64
	Title         string
	Author        string
	PublishedYear *int
	ISBN          *string
}

var (
	ErrNotFound      = errors.New("book not found")
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")
	ErrInvalidBook   = errors.New("invalid book")
	ErrEmptyPatch    = errors.New("at least one field must be provided to update the book")
)

// Validate checks the fields required on creation.
func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidBook)
	}
	if strings.TrimSpace(b.Author) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidBook)
	}
	return nil
}

// normalize maps an empty ISBN to NULL so blank values never hit the unique index.
func (b Book) normalize() Book {
	b.ISBN = blankToNil(b.ISBN)
	return b
}
