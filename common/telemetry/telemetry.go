package telemetry

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/fnhub/ingest/common/config"
	"github.com/fnhub/ingest/common/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry holds observability components
type Telemetry struct {
	cfg      config.TelemetryConfig
	service  string
	env      string
	log      *logger.Logger
	provider *sdktrace.TracerProvider
	pprof    *http.Server
}

// New creates telemetry components
func New(cfg *config.Config, log *logger.Logger) *Telemetry {
	return &Telemetry{
		cfg:     cfg.Telemetry,
		service: cfg.Service.Name,
		env:     cfg.Service.Environment,
		log:     log,
	}
}

// Start starts the pprof listener and installs the global tracer provider.
// Without an OTLP endpoint spans are still created but never exported.
func (t *Telemetry) Start(ctx context.Context) error {
	if t.cfg.EnablePprof {
		t.pprof = &http.Server{
			Addr:              fmt.Sprintf("localhost:%d", t.cfg.PprofPort),
			Handler:           http.DefaultServeMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			t.log.Info("pprof server starting", "addr", t.pprof.Addr)
			if err := t.pprof.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				t.log.Error("pprof server error", "error", err)
			}
		}()
	}

	if t.cfg.OTLPEndpoint == "" {
		return nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(t.cfg.OTLPEndpoint)}
	if t.cfg.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", t.service),
		attribute.String("deployment.environment", t.env),
	)

	t.provider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(t.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.log.Info("tracing enabled", "endpoint", t.cfg.OTLPEndpoint)
	return nil
}

// Tracer returns a named tracer from the global provider
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// RecordDuration records operation duration
func (t *Telemetry) RecordDuration(operation string, start time.Time) {
	t.log.Debug("operation completed",
		"operation", operation,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Shutdown flushes spans and stops the pprof listener
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var firstErr error
	if t.provider != nil {
		if err := t.provider.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("shutdown tracer provider: %w", err)
		}
	}
	if t.pprof != nil {
		if err := t.pprof.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutdown pprof: %w", err)
		}
	}
	return firstErr
}
