package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/books-api/book"
	"github.com/marcelsud/books-api/config"
	"github.com/marcelsud/books-api/events/redis"
	"github.com/marcelsud/books-api/events/signature"
	"github.com/marcelsud/books-api/internal/http/chi"
	"github.com/marcelsud/books-api/internal/storage"
	"github.com/marcelsud/books-api/metrics"
	"github.com/marcelsud/books-api/seed"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/*
 * Imports flow one way, downwards: the application (api, cli) imports the
 * business layer, which imports storage. All wiring happens here.
 */

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := httplog.NewLogger("books-api", httplog.Options{
		JSON:     true,
		LogLevel: cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()
	ctx = logger.WithContext(ctx)

	repo, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.DBDriver, err)
	}
	defer repo.Close(context.Background())
	logger.Info().Str("driver", cfg.DBDriver).Msg("storage ready")

	var (
		events    book.Publisher
		publisher *redis.Publisher
	)
	if cfg.RedisAddr != "" {
		publisher, err = newPublisher(cfg)
		if err != nil {
			return err
		}
		defer publisher.Close()
		events = publisher
		logger.Info().Str("stream", cfg.EventsStream).Msg("change feed enabled")
	}

	s := book.NewService(repo, events)

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, s, cfg.SeedFile, logger); err != nil {
			return err
		}
	}

	opts := chi.Options{Logger: &logger, Health: []chi.Pinger{repo}}
	if publisher != nil {
		opts.Health = append(opts.Health, publisher)
	}
	if cfg.MetricsEnabled {
		var stream metrics.StreamCounter
		if publisher != nil {
			stream = publisher
		}
		exporter, err := metrics.NewOTelExporter(metrics.NewStoreCollector(repo, stream))
		if err != nil {
			return fmt.Errorf("creating metrics exporter: %w", err)
		}
		defer exporter.Shutdown(context.Background())
		opts.Metrics = exporter
	}

	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      chi.Handlers(ctx, s, opts),
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return <-errShutdown
}

func newPublisher(cfg *config.Config) (*redis.Publisher, error) {
	var secret signature.Secret
	if cfg.EventsSigningSecret != "" {
		var err error
		secret, err = signature.ParseSecret(cfg.EventsSigningSecret)
		if err != nil {
			return nil, fmt.Errorf("parsing EVENTS_SIGNING_SECRET: %w", err)
		}
	}
	p, err := redis.NewPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.EventsStream, secret)
	if err != nil {
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}
	return p, nil
}

func applySeed(ctx context.Context, s book.UseCase, path string, logger zerolog.Logger) error {
	loader := seed.NewLoader()
	if err := loader.Load(path); err != nil {
		return fmt.Errorf("loading seed file: %w", err)
	}
	res, err := seed.Apply(ctx, s, loader.List())
	if err != nil {
		return fmt.Errorf("applying seed file: %w", err)
	}
	logger.Info().
		Str("file", path).
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Msg("seed applied")
	return nil
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		zerolog.Ctx(ctxShutdown).Info().Msg("shutting down server")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("forcing closing the server: %w", err)
	}
}
