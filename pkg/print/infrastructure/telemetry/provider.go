// Package telemetry builds the OpenTelemetry tracer and meter providers of the host.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	config "github.com/tigerroll/layercure/pkg/print/core/config"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

const serviceName = "layercure"

// metricExportInterval is how often the periodic reader pushes metrics.
const metricExportInterval = 15 * time.Second

func newResource() *resource.Resource {
	return resource.NewSchemaless(attribute.String("service.name", serviceName))
}

// NewTracerProvider creates a tracer provider exporting through the configured OTLP exporter.
// With exporter "none" spans are created but never exported.
func NewTracerProvider(ctx context.Context, cfg config.ExporterConfig) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(newResource())}

	switch cfg.Exporter {
	case "", config.ExporterNone:
	case config.ExporterOTLPHTTP:
		httpOpts := []otlptracehttp.Option{}
		if cfg.Endpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP/HTTP trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	case config.ExporterOTLPGRPC:
		grpcOpts := []otlptracegrpc.Option{}
		if cfg.Endpoint != "" {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP/gRPC trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	default:
		return nil, fmt.Errorf("unsupported tracing exporter '%s'", cfg.Exporter)
	}

	logger.Infof("Tracing enabled (exporter: %s).", exporterName(cfg.Exporter))
	return sdktrace.NewTracerProvider(opts...), nil
}

// NewMeterProvider creates a meter provider pushing to the configured OTLP exporter.
func NewMeterProvider(ctx context.Context, cfg config.ExporterConfig) (*sdkmetric.MeterProvider, error) {
	var exp sdkmetric.Exporter
	switch cfg.Exporter {
	case config.ExporterOTLPHTTP:
		httpOpts := []otlpmetrichttp.Option{}
		if cfg.Endpoint != "" {
			httpOpts = append(httpOpts, otlpmetrichttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			httpOpts = append(httpOpts, otlpmetrichttp.WithInsecure())
		}
		e, err := otlpmetrichttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP/HTTP metric exporter: %w", err)
		}
		exp = e
	case config.ExporterOTLPGRPC:
		grpcOpts := []otlpmetricgrpc.Option{}
		if cfg.Endpoint != "" {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}
		e, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP/gRPC metric exporter: %w", err)
		}
		exp = e
	default:
		return nil, fmt.Errorf("exporter '%s' is not an OTLP metric exporter", cfg.Exporter)
	}

	logger.Infof("OTLP metrics enabled (exporter: %s).", cfg.Exporter)
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(newResource()),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(metricExportInterval))),
	), nil
}

func exporterName(name string) string {
	if name == "" {
		return config.ExporterNone
	}
	return name
}
