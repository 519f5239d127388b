package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"

	config "github.com/tigerroll/layercure/pkg/print/core/config"
	metrics "github.com/tigerroll/layercure/pkg/print/core/metrics"
	telemetry "github.com/tigerroll/layercure/pkg/print/infrastructure/telemetry"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// NewMetricRecorderProvider selects the recorder named by host.telemetry.metrics.exporter.
// OTLP meter providers are flushed and shut down when the application stops.
func NewMetricRecorderProvider(lc fx.Lifecycle, cfg *config.Config) (metrics.MetricRecorder, error) {
	ec := cfg.Host.Telemetry.Metrics
	switch ec.Exporter {
	case config.ExporterPrometheus:
		r := NewPrometheusRecorder()
		if ec.Endpoint != "" {
			serveMetrics(lc, ec.Endpoint, r)
		}
		logger.Infof("Metrics: recording to the Prometheus registry.")
		return r, nil
	case config.ExporterOTLPHTTP, config.ExporterOTLPGRPC:
		mp, err := telemetry.NewMeterProvider(context.Background(), ec)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: mp.Shutdown})
		return NewOtelRecorder(mp)
	default:
		return metrics.NewNoOpMetricRecorder(), nil
	}
}

// serveMetrics exposes the registry of r at /metrics on addr while the application runs.
func serveMetrics(lc fx.Lifecycle, addr string, r *PrometheusRecorder) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.GetRegistry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorf("Metrics: scrape endpoint stopped: %v", err)
				}
			}()
			logger.Infof("Metrics: serving /metrics on %s.", ln.Addr())
			return nil
		},
		OnStop: server.Shutdown,
	})
}

// NewTracerProvider selects the tracer named by host.telemetry.tracing.exporter.
func NewTracerProvider(lc fx.Lifecycle, cfg *config.Config) (metrics.Tracer, error) {
	ec := cfg.Host.Telemetry.Tracing
	if ec.Exporter == "" || ec.Exporter == config.ExporterNone {
		return NewOpenTelemetryTracer(noop.NewTracerProvider()), nil
	}
	tp, err := telemetry.NewTracerProvider(context.Background(), ec)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return NewOpenTelemetryTracer(tp), nil
}

// Module provides the configured metrics.MetricRecorder and metrics.Tracer.
var Module = fx.Options(
	fx.Provide(NewMetricRecorderProvider),
	fx.Provide(NewTracerProvider),
)
