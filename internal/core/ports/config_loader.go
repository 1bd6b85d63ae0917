package ports

import "go.trai.ch/getver/internal/core/domain"

// ConfigLoader defines the interface for loading the runtime configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the config file at path, or the default location when path is empty,
	// and returns it merged over the defaults.
	Load(path string) (domain.Config, error)
}
