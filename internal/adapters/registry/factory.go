package registry

import (
	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
)

// Factory implements ports.RegistryFactory by building HTTP clients.
type Factory struct{}

// NewFactory creates a new Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// New builds a Client for cfg.
func (f *Factory) New(cfg domain.Config) (ports.Registry, error) {
	return NewClient(cfg)
}

var _ ports.RegistryFactory = (*Factory)(nil)
