package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/photogallery/server/observability"

// Route surfaces reported on HTTP spans and metrics
const (
	SurfacePage    = "page"
	SurfaceAPI     = "api"
	SurfaceAdmin   = "admin"
	SurfaceImages  = "images"
	SurfaceHealth  = "health"
	SurfaceSwagger = "swagger"
)

// HTTPMetrics counts gallery requests by surface
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	degraded metric.Int64Counter
}

// NewHTTPMetrics creates HTTP metrics instruments
func NewHTTPMetrics() (*HTTPMetrics, error) {
	meter := otel.Meter(instrumentationName)

	requests, err := meter.Int64Counter(
		"gallery.http.requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"gallery.http.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	degraded, err := meter.Int64Counter(
		"gallery.http.degraded",
		metric.WithDescription("Responses answered 503 because the content store was unavailable"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{requests: requests, duration: duration, degraded: degraded}, nil
}

// statusRecorder captures the status code written by the handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func record(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// routePattern returns the matched chi pattern, falling back to the raw path
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// Surface classifies a request path into the part of the gallery it hits
func Surface(path string) string {
	switch {
	case path == "/health" || path == "/api/health":
		return SurfaceHealth
	case strings.HasPrefix(path, "/api/admin/"), path == "/admin", strings.HasPrefix(path, "/admin/"):
		return SurfaceAdmin
	case strings.HasPrefix(path, "/api/"):
		return SurfaceAPI
	case strings.HasPrefix(path, "/images/"):
		return SurfaceImages
	case strings.HasPrefix(path, "/swagger/"):
		return SurfaceSwagger
	default:
		return SurfacePage
	}
}

// TracingMiddleware opens a server span per request. Health probes are not traced.
func TracingMiddleware(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(instrumentationName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			surface := Surface(r.URL.Path)
			if surface == SurfaceHealth {
				next.ServeHTTP(w, r)
				return
			}

			propagator := otel.GetTextMapPropagator()
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("service.name", serviceName),
					attribute.String("gallery.surface", surface),
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
					attribute.String("http.user_agent", r.UserAgent()),
				),
			)
			defer span.End()

			rec := record(w)
			r = r.WithContext(ctx)
			next.ServeHTTP(rec, r)

			// chi fills the pattern in while routing
			route := routePattern(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rec.status),
			)

			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

// MetricsMiddleware records request count and latency per surface and route
func MetricsMiddleware(metrics *HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			ctx := r.Context()
			attrs := metric.WithAttributes(
				attribute.String("gallery.surface", Surface(r.URL.Path)),
				attribute.String("http.route", routePattern(r)),
				attribute.Int("http.status_code", rec.status),
			)
			metrics.requests.Add(ctx, 1, attrs)
			metrics.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
			if rec.status == http.StatusServiceUnavailable {
				metrics.degraded.Add(ctx, 1, attrs)
			}
		})
	}
}
