// Package telemetry exports lookup spans through OpenTelemetry.
package telemetry

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/getver/internal/build"
	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
	"go.trai.ch/zerr"
)

// ServiceName identifies getver in exported traces.
const ServiceName = "getver"

// Provider owns the tracer provider for one run.
// When tracing is disabled it hands out a no-op tracer and Shutdown does nothing.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   ports.Tracer
}

// NewProvider configures span export for cfg.
// The stdout exporter writes to w, since the process's stdout carries the report.
func NewProvider(ctx context.Context, cfg domain.TraceConfig, w io.Writer, opts ...sdktrace.TracerProviderOption) (*Provider, error) {
	if w == nil {
		w = os.Stderr
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch cfg.Exporter {
	case domain.TraceNone, "":
		if len(opts) == 0 {
			return &Provider{tracer: NewNoOpTracer()}, nil
		}
	case domain.TraceStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	case domain.TraceFile:
		if cfg.FilePath == "" {
			return nil, zerr.With(domain.ErrTracingSetupFailed, "reason", "file_path required for file exporter")
		}
		exporter, err = NewFileExporter(cfg.FilePath)
	case domain.TraceOTLP:
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = domain.DefaultOTLPEndpoint
		}
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, zerr.With(domain.ErrTracingSetupFailed, "exporter", string(cfg.Exporter))
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrTracingSetupFailed.Error()), "exporter", string(cfg.Exporter))
	}

	// Schemaless avoids schema URL conflicts with resource.Default().
	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", build.Version),
	)

	providerOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exporter != nil {
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}
	providerOpts = append(providerOpts, opts...)

	tp := sdktrace.NewTracerProvider(providerOpts...)

	return &Provider{
		provider: tp,
		tracer:   NewOTelTracer(tp.Tracer(ServiceName)),
	}, nil
}

// Tracer returns the tracer for lookup spans. It is never nil.
func (p *Provider) Tracer() ports.Tracer {
	return p.tracer
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// Shutdown flushes pending spans and releases the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	if err := p.provider.Shutdown(ctx); err != nil {
		return zerr.Wrap(err, "failed to flush traces")
	}
	return nil
}
