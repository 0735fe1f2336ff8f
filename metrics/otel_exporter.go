package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter exposes service metrics in Prometheus format through OpenTelemetry.
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
	collector     Collector

	meter             metric.Meter
	booksGauge        metric.Int64ObservableGauge
	streamLengthGauge metric.Int64ObservableGauge
	requests          metric.Int64Counter
	duration          metric.Float64Histogram
}

// NewOTelExporter creates an exporter backed by its own registry, so
// several exporters can live in one process (tests do this).
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meterProvider.Meter("books-api", metric.WithInstrumentationVersion("1.0.0")),
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.booksGauge, err = oe.meter.Int64ObservableGauge(
		"books.count",
		metric.WithDescription("Number of books stored"),
		metric.WithUnit("{books}"),
	)
	if err != nil {
		return fmt.Errorf("creating books gauge: %w", err)
	}

	oe.streamLengthGauge, err = oe.meter.Int64ObservableGauge(
		"events.stream.length",
		metric.WithDescription("Number of entries in the change feed stream"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return fmt.Errorf("creating stream length gauge: %w", err)
	}

	// one collection feeds both gauges
	_, err = oe.meter.RegisterCallback(oe.observe, oe.booksGauge, oe.streamLengthGauge)
	if err != nil {
		return fmt.Errorf("registering callback: %w", err)
	}

	oe.requests, err = oe.meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Number of HTTP requests served"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating request counter: %w", err)
	}

	oe.duration, err = oe.meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating duration histogram: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observe(ctx context.Context, o metric.Observer) error {
	m, err := oe.collector.Collect(ctx)
	if err != nil {
		return err
	}
	o.ObserveInt64(oe.booksGauge, m.Books)
	o.ObserveInt64(oe.streamLengthGauge, m.StreamLength)
	return nil
}

// Middleware records one request count and duration per matched route.
func (oe *OTelExporter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		attrs := metric.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("http.response.status_code", strconv.Itoa(status)),
		)
		oe.requests.Add(r.Context(), 1, attrs)
		oe.duration.Record(r.Context(), time.Since(start).Seconds(), attrs)
	})
}

// ServeHTTP returns the Prometheus scrape handler.
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
