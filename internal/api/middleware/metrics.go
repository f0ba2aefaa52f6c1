package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/weatherdesk/weatherdesk/internal/weather"
)

const meterName = "github.com/weatherdesk/weatherdesk/internal/api/middleware"

// Metrics records request counts, latency and response sizes per route.
type Metrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	inFlight metric.Int64UpDownCounter
	size     metric.Int64Histogram
}

// NewMetrics registers the HTTP server instruments on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}

	var errs [4]error
	m.duration, errs[0] = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"))
	m.total, errs[1] = meter.Int64Counter("http.server.request.total",
		metric.WithDescription("HTTP server requests by route and status"),
		metric.WithUnit("{request}"))
	m.inFlight, errs[2] = meter.Int64UpDownCounter("http.server.requests_in_flight",
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"))
	m.size, errs[3] = meter.Int64Histogram("http.server.response.size",
		metric.WithDescription("Size of HTTP response bodies"),
		metric.WithUnit("By"))

	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return m, nil
}

// Middleware records one observation per request. Routes are labelled by
// their chi pattern so user input never becomes a metric label.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			// The route is unknown until after routing.
			method := metric.WithAttributes(attribute.String("http.method", r.Method))
			m.inFlight.Add(ctx, 1, method)
			defer m.inFlight.Add(ctx, -1, method)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routePattern(r)),
				attribute.String("http.status_code", strconv.Itoa(rec.statusCode)),
				attribute.Bool("error", rec.statusCode >= 400),
			)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.total.Add(ctx, 1, attrs)
			m.size.Record(ctx, rec.written, attrs)
		})
	}
}

// ProviderMetrics records calls to the weather upstream.
type ProviderMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	failures metric.Int64Counter
}

// NewProviderMetrics registers the upstream instruments on the global meter.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)
	m := &ProviderMetrics{}

	var errs [3]error
	m.duration, errs[0] = meter.Float64Histogram("provider.request.duration",
		metric.WithDescription("Duration of weather provider calls"),
		metric.WithUnit("s"))
	m.total, errs[1] = meter.Int64Counter("provider.request.total",
		metric.WithDescription("Weather provider calls"),
		metric.WithUnit("{request}"))
	m.failures, errs[2] = meter.Int64Counter("provider.request.errors",
		metric.WithDescription("Failed weather provider calls by failure kind"),
		metric.WithUnit("{request}"))

	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRequest records one upstream call.
func (m *ProviderMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	// Recorded after the lookup returns, when the request context may
	// already be cancelled.
	ctx := context.Background()

	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	)
	m.duration.Record(ctx, duration.Seconds(), attrs)
	m.total.Add(ctx, 1, attrs)

	if err != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider.name", provider),
			attribute.String("error.type", ErrorKind(err)),
		))
	}
}

// ErrorKind classifies a lookup error as http_<status>, transport, parse or
// other. A nil error yields "".
func ErrorKind(err error) string {
	var fetchErr *weather.FetchError
	var parseErr *weather.ParseError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr) && fetchErr.StatusCode != 0:
		return "http_" + strconv.Itoa(fetchErr.StatusCode)
	case errors.As(err, &fetchErr):
		return "transport"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "other"
	}
}
