package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/books-api/book"
	"github.com/marcelsud/books-api/metrics"
	"github.com/rs/zerolog"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the optional pieces of the router.
type Options struct {
	// Logger defaults to a JSON httplog logger named books-api
	Logger *zerolog.Logger

	// Health lists the dependencies GET /health pings; none means always healthy
	Health []Pinger

	// Metrics enables GET /metrics and request instrumentation
	Metrics *metrics.OTelExporter
}

func Handlers(ctx context.Context, bookService book.UseCase, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		l := httplog.NewLogger("books-api", httplog.Options{
			JSON: true,
		})
		logger = &l
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(*logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(logEntryInContext)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.ServeHTTP())
	}

	r.Get("/health", health(opts.Health).ServeHTTP)

	r.Method(http.MethodGet, "/books", getBooks(bookService))
	r.Method(http.MethodGet, "/books/{id}", getBook(bookService))
	r.Method(http.MethodPost, "/books", postBooks(bookService))
	r.Method(http.MethodPut, "/books/{id}", putBook(bookService))
	r.Method(http.MethodDelete, "/books/{id}", deleteBook(bookService))

	return r
}

// logEntryInContext exposes the request log entry to zerolog.Ctx further down.
func logEntryInContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := httplog.LogEntry(r.Context())
		next.ServeHTTP(w, r.WithContext(entry.WithContext(r.Context())))
	})
}

func health(deps []Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		for _, p := range deps {
			if err := p.Ping(r.Context()); err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
}
