package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/glebarez/go-sqlite" // pure Go SQLite driver, registers "sqlite"
	"github.com/marcelsud/books-api/book"
)

/* Embedded repository, handy for local runs and tests without Docker.
 * SQLite allows a single writer, so the pool is pinned to one connection.
 */

type Repository struct {
	DB *sql.DB
}

// NewRepository opens (or creates) the database file at path and the books table.
func NewRepository(ctx context.Context, path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	r := &Repository{DB: db}
	if err := r.CreateTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Select(ctx context.Context, id int64) (book.Book, error) {
	var b book.Book
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, title, author, published_year, isbn FROM books WHERE id = ?", id).
		Scan(&b.ID, &b.Title, &b.Author, &b.PublishedYear, &b.ISBN)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("selecting book: %w", err)
	}
	return b, nil
}

func (r *Repository) SelectAll(ctx context.Context) ([]book.Book, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, title, author, published_year, isbn FROM books ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("selecting books: %w", err)
	}
	defer rows.Close()

	books := []book.Book{}
	for rows.Next() {
		var b book.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.PublishedYear, &b.ISBN); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}
	return books, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	return n, nil
}

func (r *Repository) Insert(ctx context.Context, b book.Book) (int64, error) {
	result, err := r.DB.ExecContext(ctx,
		"INSERT INTO books (title, author, published_year, isbn) VALUES (?, ?, ?, ?)",
		b.Title, b.Author, b.PublishedYear, b.ISBN)
	if err != nil {
		return 0, classify("inserting book", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID: %w", err)
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, id int64, p book.Patch) error {
	set, args := p.SetClause(book.QuestionMark)
	args = append(args, id)
	result, err := r.DB.ExecContext(ctx, "UPDATE books SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return classify("updating book", err)
	}
	return expectRow(result)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}
	return expectRow(result)
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func (r *Repository) Close(ctx context.Context) error {
	if err := r.DB.Close(); err != nil {
		return fmt.Errorf("closing repository: %w", err)
	}
	return nil
}

func (r *Repository) CreateTable(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS books (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  author TEXT NOT NULL,
  published_year INTEGER,
  isbn TEXT UNIQUE
);`)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

// classify maps SQLite's constraint message; the driver exposes no stable error code type.
func classify(action string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return book.ErrDuplicateISBN
	}
	return fmt.Errorf("%s: %w", action, err)
}

func expectRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return book.ErrNotFound
	}
	return nil
}
