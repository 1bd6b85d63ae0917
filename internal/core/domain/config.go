package domain

import (
	"net/url"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultRegistryURL is the registry queried when no other is configured.
	DefaultRegistryURL = "https://crates.io"

	// DefaultResource is the path segment after /api/v1/.
	DefaultResource = "crates"

	// DefaultEnvelope is the response member holding the package metadata.
	DefaultEnvelope = "crate"

	// DefaultUserAgent identifies getver to the registry.
	DefaultUserAgent = "getver (https://go.trai.ch/getver)"

	// DefaultConcurrency caps in-flight lookups when no limit is configured.
	DefaultConcurrency = 8

	// Unbounded disables the concurrency cap: one goroutine per name.
	Unbounded = -1

	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 10 * time.Second

	// ConfigDirName is the directory under the user config dir holding getver's config.
	ConfigDirName = "getver"

	// ConfigFileName is the name of the config file.
	ConfigFileName = "config.yaml"

	// ConfigEnvVar overrides the config file location.
	ConfigEnvVar = "GETVER_CONFIG"

	// DefaultOTLPEndpoint is the collector address used by the otlp trace exporter.
	DefaultOTLPEndpoint = "localhost:4317"
)

// OutputFormat selects how the report is rendered.
type OutputFormat string

const (
	// OutputText renders colored, human-readable lines.
	OutputText OutputFormat = "text"
	// OutputJSON renders a single JSON document.
	OutputJSON OutputFormat = "json"
)

// TraceExporter selects where lookup spans are exported.
type TraceExporter string

const (
	// TraceNone disables tracing.
	TraceNone TraceExporter = "none"
	// TraceStdout writes spans to stderr as pretty JSON.
	TraceStdout TraceExporter = "stdout"
	// TraceFile writes spans to a file.
	TraceFile TraceExporter = "file"
	// TraceOTLP sends spans to an OTLP gRPC collector.
	TraceOTLP TraceExporter = "otlp"
)

// Config is the resolved runtime configuration.
type Config struct {
	Registry    string
	Resource    string
	Envelope    string
	UserAgent   string
	Concurrency int
	Timeout     time.Duration
	Output      OutputFormat
	Trace       TraceConfig
}

// TraceConfig configures lookup tracing.
type TraceConfig struct {
	Exporter     TraceExporter
	FilePath     string
	OTLPEndpoint string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Registry:    DefaultRegistryURL,
		Resource:    DefaultResource,
		Envelope:    DefaultEnvelope,
		UserAgent:   DefaultUserAgent,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		Output:      OutputText,
		Trace: TraceConfig{
			Exporter:     TraceNone,
			OTLPEndpoint: DefaultOTLPEndpoint,
		},
	}
}

// Validate checks the configuration for values the lookup pipeline cannot use.
func (c Config) Validate() error {
	u, err := url.Parse(c.Registry)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return zerr.With(zerr.With(ErrInvalidConfig, "field", "registry"), "value", c.Registry)
	}

	if c.Resource == "" || strings.Contains(c.Resource, "/") {
		return zerr.With(zerr.With(ErrInvalidConfig, "field", "resource"), "value", c.Resource)
	}

	if c.Envelope == "" {
		return zerr.With(ErrInvalidConfig, "field", "envelope")
	}

	if c.Concurrency < Unbounded {
		return zerr.With(ErrInvalidConcurrency, "value", c.Concurrency)
	}

	if c.Timeout < 0 {
		return zerr.With(zerr.With(ErrInvalidConfig, "field", "timeout"), "value", c.Timeout.String())
	}

	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return zerr.With(zerr.With(ErrInvalidConfig, "field", "output"), "value", string(c.Output))
	}

	switch c.Trace.Exporter {
	case TraceNone, TraceStdout, TraceOTLP:
	case TraceFile:
		if c.Trace.FilePath == "" {
			return zerr.With(ErrInvalidConfig, "field", "trace.file_path")
		}
	default:
		return zerr.With(zerr.With(ErrInvalidConfig, "field", "trace.exporter"), "value", string(c.Trace.Exporter))
	}

	return nil
}
