package storage

import (
	"context"
	"fmt"

	"github.com/marcelsud/books-api/book"
	"github.com/marcelsud/books-api/book/mysql"
	"github.com/marcelsud/books-api/book/postgres"
	"github.com/marcelsud/books-api/book/sqlite"
	"github.com/marcelsud/books-api/config"
)

// Open connects the configured backend and makes sure the books table exists.
func Open(ctx context.Context, cfg *config.Config) (book.Repository, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		dsn := mysql.DSN(cfg.DBHost, cfg.DatabasePort(), cfg.DBUser, cfg.DBPassword, cfg.DBName)
		repo, err := mysql.NewRepositoryWithPoolConfig(dsn, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifeMinutes)
		if err != nil {
			return nil, err
		}
		return prepare(ctx, repo, repo.CreateTable)
	case config.DriverPostgres:
		repo, err := postgres.NewRepositoryWithPoolConfig(cfg.PostgresConnectionString(), cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifeMinutes)
		if err != nil {
			return nil, err
		}
		return prepare(ctx, repo, repo.CreateTable)
	case config.DriverSQLite:
		// creates the table itself
		return sqlite.NewRepository(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func prepare(ctx context.Context, repo book.Repository, createTable func(context.Context) error) (book.Repository, error) {
	if err := createTable(ctx); err != nil {
		_ = repo.Close(ctx)
		return nil, fmt.Errorf("creating books table: %w", err)
	}
	return repo, nil
}
