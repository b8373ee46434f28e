package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartStoreSpan starts a client span for a document-store query
func StartStoreSpan(ctx context.Context, driver, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("store.driver", driver),
		attribute.String("store.operation", operation),
	)
	return StartSpan(ctx, "store.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// StoreMetrics holds document-store query metrics
type StoreMetrics struct {
	queryDuration metric.Float64Histogram
	queryCount    metric.Int64Counter
	errorCount    metric.Int64Counter
}

// NewStoreMetrics creates store metrics instruments
func NewStoreMetrics() (*StoreMetrics, error) {
	meter := otel.Meter(instrumentationName)

	queryDuration, err := meter.Float64Histogram(
		"store.query.duration",
		metric.WithDescription("Document store query duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	queryCount, err := meter.Int64Counter(
		"store.query.count",
		metric.WithDescription("Total number of document store queries"),
		metric.WithUnit("{queries}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"store.query.failures",
		metric.WithDescription("Document store queries that failed and were degraded to empty results"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, err
	}

	return &StoreMetrics{
		queryDuration: queryDuration,
		queryCount:    queryCount,
		errorCount:    errorCount,
	}, nil
}

// RecordQuery records one store query. A nil receiver is a no-op.
func (m *StoreMetrics) RecordQuery(ctx context.Context, driver, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("store.driver", driver),
		attribute.String("store.operation", operation),
	)

	m.queryCount.Add(ctx, 1, attrs)
	m.queryDuration.Record(ctx, float64(duration.Milliseconds()), attrs)

	if err != nil {
		m.errorCount.Add(ctx, 1, attrs)
	}
}

// ImageMetrics counts local image transformations
type ImageMetrics struct {
	transforms metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewImageMetrics creates image metrics instruments
func NewImageMetrics() (*ImageMetrics, error) {
	meter := otel.Meter(instrumentationName)

	transforms, err := meter.Int64Counter(
		"gallery.image.transforms",
		metric.WithDescription("Total number of image transformations"),
		metric.WithUnit("{images}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"gallery.image.transform.duration",
		metric.WithDescription("Image transformation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &ImageMetrics{transforms: transforms, duration: duration}, nil
}

// RecordTransform records one image transformation. A nil receiver is a no-op.
func (m *ImageMetrics) RecordTransform(ctx context.Context, format string, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("image.format", format),
		attribute.Bool("success", success),
	)
	m.transforms.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(duration.Milliseconds()), attrs)
}
