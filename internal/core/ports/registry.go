// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/getver/internal/core/domain"
)

// Registry looks up packages in a remote package registry.
//
//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type Registry interface {
	// Lookup issues exactly one request for name and classifies the answer.
	// Every failure mode is reported through the returned outcome; Lookup never
	// returns an error or panics past this boundary.
	Lookup(ctx context.Context, name domain.PackageName) domain.Outcome
}

// RegistryFactory builds a Registry for a resolved configuration.
type RegistryFactory interface {
	New(cfg domain.Config) (Registry, error)
}
