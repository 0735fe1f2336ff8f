package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/marcelsud/books-api/book"
)

// erDupEntry is ER_DUP_ENTRY, raised by the unique index on isbn.
const erDupEntry = 1062

type Repository struct {
	DB *sqlx.DB
}

// bookRow is the storage shape of a book.
type bookRow struct {
	ID            int64          `db:"id"`
	Title         string         `db:"title"`
	Author        string         `db:"author"`
	PublishedYear sql.NullInt64  `db:"published_year"`
	ISBN          sql.NullString `db:"isbn"`
}

func (r bookRow) toBook() book.Book {
	b := book.Book{
		ID:     r.ID,
		Title:  r.Title,
		Author: r.Author,
	}
	if r.PublishedYear.Valid {
		year := int(r.PublishedYear.Int64)
		b.PublishedYear = &year
	}
	if r.ISBN.Valid {
		isbn := r.ISBN.String
		b.ISBN = &isbn
	}
	return b
}

// NewRepository opens a MySQL repository with the default pool (25, 5, 5 min).
func NewRepository(dsn string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(dsn, 25, 5, 5)
}

// NewRepositoryWithPoolConfig opens a MySQL repository.
// Zero values leave the database/sql defaults in place.
func NewRepositoryWithPoolConfig(dsn string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}
	return newRepository(db, maxOpenConns, maxIdleConns, maxLifeMinutes)
}

// newRepository checks the handle and sizes its pool. db is closed on failure.
func newRepository(db *sqlx.DB, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
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
	return &Repository{DB: db}, nil
}

// DSN builds a driver DSN. CLIENT_FOUND_ROWS makes UPDATE report matched rows,
// so rewriting identical values is not mistaken for a missing book.
func DSN(host, port, user, password, dbName string) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = host + ":" + port
	cfg.User = user
	cfg.Passwd = password
	cfg.DBName = dbName
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

func (r *Repository) Select(ctx context.Context, id int64) (book.Book, error) {
	var row bookRow
	err := r.DB.GetContext(ctx, &row,
		"SELECT id, title, author, published_year, isbn FROM books WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("selecting book: %w", err)
	}
	return row.toBook(), nil
}

func (r *Repository) SelectAll(ctx context.Context) ([]book.Book, error) {
	var rows []bookRow
	err := r.DB.SelectContext(ctx, &rows,
		"SELECT id, title, author, published_year, isbn FROM books ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("selecting books: %w", err)
	}
	books := make([]book.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.toBook())
	}
	return books, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM books"); err != nil {
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
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTable creates the books table when missing.
func (r *Repository) CreateTable(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS books (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			author VARCHAR(255) NOT NULL,
			published_year INT NULL,
			isbn VARCHAR(32) NULL UNIQUE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	return nil
}

// DropTable removes the books table.
func (r *Repository) DropTable(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, "DROP TABLE IF EXISTS books"); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}
	return nil
}

func classify(action string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == erDupEntry {
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
