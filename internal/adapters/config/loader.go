// Package config provides the configuration loader for getver.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger

	// userConfigDir is os.UserConfigDir, replaceable in tests.
	userConfigDir func() (string, error)
}

// NewLoader creates a new configuration loader.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{
		Logger:        log,
		userConfigDir: os.UserConfigDir,
	}
}

// Load reads the config file and merges it over domain.DefaultConfig.
// An empty path falls back to $GETVER_CONFIG, then to the user config directory.
// A missing file is only an error when it was named explicitly.
func (l *Loader) Load(path string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	explicit := true
	if path == "" {
		path = os.Getenv(domain.ConfigEnvVar)
	}
	if path == "" {
		explicit = false
		path = l.defaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			l.Logger.Debug("no config file at " + path + ", using defaults")
			return cfg, nil
		}
		return cfg, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	file, err := parse(data)
	if err != nil {
		return cfg, zerr.With(err, "path", path)
	}

	if err := apply(&cfg, file); err != nil {
		return cfg, zerr.With(err, "path", path)
	}

	l.Logger.Debug("loaded config from " + path)
	return cfg, nil
}

func (l *Loader) defaultPath() string {
	dir, err := l.userConfigDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, domain.ConfigDirName, domain.ConfigFileName)
}

func parse(data []byte) (*Configfile, error) {
	var file Configfile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return &file, nil
}

func apply(cfg *domain.Config, file *Configfile) error {
	setString(&cfg.Registry, file.Registry)
	setString(&cfg.Resource, file.Resource)
	setString(&cfg.Envelope, file.Envelope)
	setString(&cfg.UserAgent, file.UserAgent)

	if file.Concurrency != nil {
		cfg.Concurrency = *file.Concurrency
	}

	if file.Timeout != "" {
		timeout, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "field", "timeout")
		}
		cfg.Timeout = timeout
	}

	if file.Output != "" {
		cfg.Output = domain.OutputFormat(file.Output)
	}

	if file.Trace != nil {
		if file.Trace.Exporter != "" {
			cfg.Trace.Exporter = domain.TraceExporter(file.Trace.Exporter)
		}
		setString(&cfg.Trace.FilePath, file.Trace.FilePath)
		setString(&cfg.Trace.OTLPEndpoint, file.Trace.OTLPEndpoint)
	}

	// Flags still apply on top; the caller validates the merged result.
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Ensure Loader satisfies the interface.
var _ ports.ConfigLoader = (*Loader)(nil)
