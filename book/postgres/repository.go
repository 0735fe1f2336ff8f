package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/marcelsud/books-api/book"
)

/*
PostgreSQL implementation of book.Repository.

Differences from the MySQL repository:
- positional placeholders ($1, $2) instead of ?
- BIGSERIAL instead of AUTO_INCREMENT
- the generated id comes back through RETURNING
*/

// uniqueViolation is the SQLSTATE raised by the unique index on isbn.
const uniqueViolation = "23505"

type Repository struct {
	DB *sql.DB
}

// NewRepository opens a PostgreSQL repository with the default pool (25, 5, 5 min).
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig opens a PostgreSQL repository.
// maxOpenConns: maximum simultaneous connections (0 = unlimited)
// maxIdleConns: idle connections kept in the pool
// maxLifeMinutes: how long a connection may be reused
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	return newRepository(db, maxOpenConns, maxIdleConns, maxLifeMinutes)
}

// newRepository checks the handle and sizes its pool. db is closed on failure.
func newRepository(db *sql.DB, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return &Repository{
		DB: db,
	}, nil
}

// Select fetches a book by ID
func (r *Repository) Select(ctx context.Context, id int64) (book.Book, error) {
	query := "SELECT id, title, author, published_year, isbn FROM books WHERE id = $1"

	var b book.Book
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.PublishedYear,
		&b.ISBN,
	)

	if err == sql.ErrNoRows {
		return book.Book{}, book.ErrNotFound
	}

	if err != nil {
		return book.Book{}, fmt.Errorf("selecting book: %w", err)
	}

	return b, nil
}

// SelectAll returns every book
func (r *Repository) SelectAll(ctx context.Context) ([]book.Book, error) {
	query := "SELECT id, title, author, published_year, isbn FROM books ORDER BY id"

	rows, err := r.DB.QueryContext(ctx, query)
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

// Count returns the number of rows in the books table
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	return n, nil
}

// Insert stores a new book and returns the generated ID
func (r *Repository) Insert(ctx context.Context, b book.Book) (int64, error) {
	query := `
		INSERT INTO books (title, author, published_year, isbn)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.DB.QueryRowContext(ctx, query, b.Title, b.Author, b.PublishedYear, b.ISBN).Scan(&id)
	if err != nil {
		return 0, classify("inserting book", err)
	}

	return id, nil
}

// Update writes the supplied columns of an existing book
func (r *Repository) Update(ctx context.Context, id int64, p book.Patch) error {
	set, args := p.SetClause(book.Dollar)
	query := fmt.Sprintf("UPDATE books SET %s WHERE id = $%d", set, len(args)+1)
	args = append(args, id)

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return classify("updating book", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rows == 0 {
		return book.ErrNotFound
	}

	return nil
}

// Delete removes a book by ID
func (r *Repository) Delete(ctx context.Context, id int64) error {
	query := "DELETE FROM books WHERE id = $1"

	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rows == 0 {
		return book.ErrNotFound
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// Close closes the database handle
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTable creates the books table when missing
func (r *Repository) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS books (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			published_year INTEGER,
			isbn TEXT UNIQUE
		)
	`

	_, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	return nil
}

// DropTable removes the books table.
func (r *Repository) DropTable(ctx context.Context) error {
	query := "DROP TABLE IF EXISTS books CASCADE"

	_, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}

	return nil
}

func classify(action string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return book.ErrDuplicateISBN
	}
	return fmt.Errorf("%s: %w", action, err)
}
