package observability

import (
	"context"
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const exportTimeout = 10 * time.Second

// Config controls the OTLP exporters. Telemetry is off unless OTEL_ENABLED is set.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	OTLPEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Enabled        bool          `env:"OTEL_ENABLED"`
	SampleRatio    float64       `env:"OTEL_TRACES_SAMPLE_RATIO" envDefault:"1"`
	MetricInterval time.Duration `env:"OTEL_METRIC_INTERVAL" envDefault:"30s"`
}

// Telemetry holds the telemetry providers
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	config         Config
}

// NewConfig reads the telemetry settings from the environment.
// Unparseable values leave telemetry disabled.
func NewConfig(serviceName, serviceVersion string) Config {
	cfg := Config{ServiceName: serviceName, ServiceVersion: serviceVersion}
	if err := env.Parse(&cfg); err != nil {
		GetLogger().WithField("component", "telemetry").WithError(err).Warn("Invalid telemetry settings, telemetry disabled")
		return Config{ServiceName: serviceName, ServiceVersion: serviceVersion}
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		cfg.SampleRatio = 1
	}
	return cfg
}

// Initialize installs the global tracer and meter providers.
// Exporter failures are logged and leave that signal on the no-op provider.
func Initialize(ctx context.Context, cfg Config) (*Telemetry, error) {
	log := GetLogger().WithField("component", "telemetry")

	if !cfg.Enabled {
		log.Debug("Telemetry disabled")
		return &Telemetry{config: cfg}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithHost(),
	)
	if err != nil {
		return nil, err
	}

	t := &Telemetry{config: cfg}

	if t.TracerProvider, err = initTracer(ctx, cfg, res); err != nil {
		log.WithError(err).Warn("Trace exporter unavailable")
	} else {
		otel.SetTracerProvider(t.TracerProvider)
	}

	if t.MeterProvider, err = initMeter(ctx, cfg, res); err != nil {
		log.WithError(err).Warn("Metric exporter unavailable")
	} else {
		otel.SetMeterProvider(t.MeterProvider)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.WithFields(map[string]interface{}{
		"endpoint":     cfg.OTLPEndpoint,
		"sample_ratio": cfg.SampleRatio,
	}).Info("Telemetry initialized")

	return t, nil
}

func initTracer(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithTimeout(exportTimeout),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	), nil
}

func initMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithTimeout(exportTimeout),
	)
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	), nil
}

// Shutdown flushes and stops the providers. A disabled Telemetry is a no-op.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || !t.config.Enabled {
		return nil
	}

	GetLogger().WithField("component", "telemetry").Info("Flushing telemetry")

	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
