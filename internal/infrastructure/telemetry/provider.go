// Package telemetry exports DealerDesk traces and metrics over OTLP/gRPC and
// provides the instruments and span helpers the services record with.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ServiceVersion is reported on every exported resource
const ServiceVersion = "1.0.0"

const shutdownTimeout = 10 * time.Second

// Config selects which signals are exported and where
type Config struct {
	ServiceName       string
	CollectorEndpoint string // host:port of an OTLP gRPC collector
	Insecure          bool

	TracingEnabled bool
	SamplingRatio  float64

	MetricsEnabled  bool
	MetricsInterval time.Duration
}

// Providers owns the SDK tracer and meter providers. A disabled signal keeps
// the global no-op provider.
type Providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
	log    *zap.Logger
}

// Setup builds the enabled providers and installs them globally together
// with the W3C trace context and baggage propagators.
func Setup(ctx context.Context, cfg Config, log *zap.Logger) (*Providers, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Providers{log: log}
	if !cfg.TracingEnabled && !cfg.MetricsEnabled {
		log.Info("Telemetry export disabled")
		return p, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	if cfg.TracingEnabled {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		p.tracer = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
		)
		otel.SetTracerProvider(p.tracer)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))
	}

	if cfg.MetricsEnabled {
		interval := cfg.MetricsInterval
		if interval <= 0 {
			interval = time.Minute
		}
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("otlp metric exporter: %w", err), p.Shutdown(ctx))
		}
		p.meter = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		)
		otel.SetMeterProvider(p.meter)
	}

	log.Info("Telemetry export enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Bool("traces", p.tracer != nil),
		zap.Bool("metrics", p.meter != nil),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return p, nil
}

func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func (p *Providers) TracingEnabled() bool { return p.tracer != nil }
func (p *Providers) MetricsEnabled() bool { return p.meter != nil }

func (p *Providers) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.tracer == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return p.tracer.Tracer(name, opts...)
}

func (p *Providers) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p.meter == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return p.meter.Meter(name, opts...)
}

// Shutdown flushes and stops both providers, bounded by a 10s timeout
func (p *Providers) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if p.meter != nil {
		if err := p.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	if p.tracer != nil {
		if err := p.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if p.tracer != nil || p.meter != nil {
		p.log.Info("Telemetry providers shut down")
	}
	return nil
}
