// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/getver/internal/adapters/config"
	_ "go.trai.ch/getver/internal/adapters/logger"
	_ "go.trai.ch/getver/internal/adapters/registry"
	// Register app nodes.
	_ "go.trai.ch/getver/internal/app"
)
