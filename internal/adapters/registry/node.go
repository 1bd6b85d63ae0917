package registry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/getver/internal/core/ports"
)

// NodeID is the unique identifier for the registry factory Graft node.
const NodeID graft.ID = "adapter.registry"

func init() {
	graft.Register(graft.Node[ports.RegistryFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RegistryFactory, error) {
			return NewFactory(), nil
		},
	})
}
