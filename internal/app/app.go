// Package app implements the application layer for getver.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/getver/internal/adapters/reporter"  //nolint:depguard // Wired in app layer
	"go.trai.ch/getver/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
	"go.trai.ch/getver/internal/engine/dispatcher"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	registries   ports.RegistryFactory

	stdout       io.Writer
	stderr       io.Writer
	traceOptions []sdktrace.TracerProviderOption
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, log ports.Logger, registries ports.RegistryFactory) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		registries:   registries,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithOutput sets the streams the report is written to.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithTraceOptions adds tracer provider options.
// This is primarily used for testing to record spans.
func (a *App) WithTraceOptions(opts ...sdktrace.TracerProviderOption) *App {
	a.traceOptions = append(a.traceOptions, opts...)
	return a
}

// RunOptions carries command-line overrides. Zero values leave the configured value alone.
type RunOptions struct {
	ConfigPath  string
	Registry    string
	Resource    string
	Output      string
	Trace       string
	Concurrency *int
	Timeout     *time.Duration
	Verbose     bool
	LogJSON     bool
}

// apply layers the overrides on top of cfg.
func (o RunOptions) apply(cfg *domain.Config) {
	if o.Registry != "" {
		cfg.Registry = o.Registry
	}
	if o.Resource != "" {
		cfg.Resource = o.Resource
	}
	if o.Output != "" {
		cfg.Output = domain.OutputFormat(o.Output)
	}
	if o.Trace != "" {
		cfg.Trace.Exporter = domain.TraceExporter(o.Trace)
	}
	if o.Concurrency != nil {
		cfg.Concurrency = *o.Concurrency
	}
	if o.Timeout != nil {
		cfg.Timeout = *o.Timeout
	}
}

// Run looks up the latest version of every name and renders the report.
// It returns domain.ErrLookupsFailed when any name was not found or failed,
// after the report has been written.
func (a *App) Run(ctx context.Context, names []string, opts RunOptions) error {
	// 1. Logging
	a.logger.SetJSON(opts.LogJSON)
	a.logger.SetVerbose(opts.Verbose)

	// 2. Configuration
	cfg, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 3. Tracing
	provider, err := telemetry.NewProvider(ctx, cfg.Trace, a.stderr, a.traceOptions...)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn(fmt.Sprintf("failed to flush traces: %v", err))
		}
	}()

	// 4. Adapters
	render, err := reporter.New(cfg.Output, a.stdout, a.stderr)
	if err != nil {
		return err
	}

	registry, err := a.registries.New(cfg)
	if err != nil {
		return zerr.Wrap(err, "failed to create registry client")
	}

	// 5. Lookups
	batch := domain.NewBatch(names)
	a.logger.Debug(fmt.Sprintf("resolving %d package(s) against %s", batch.Len(), cfg.Registry))

	report, err := dispatcher.New(registry, provider.Tracer(), a.logger).Dispatch(ctx, batch, cfg.Concurrency)
	if err != nil {
		return zerr.Wrap(err, "lookup dispatch failed")
	}

	// 6. Report
	if err := render.Render(report); err != nil {
		return zerr.Wrap(err, "failed to write report")
	}

	if !report.AllFound() {
		return domain.ErrLookupsFailed
	}

	return nil
}
