package registry

import (
	"net/http"

	"go.trai.ch/getver/internal/core/domain"
)

// NewClientWithHTTP exports newClientWithHTTP for testing.
func NewClientWithHTTP(cfg domain.Config, httpClient *http.Client) (*Client, error) {
	return newClientWithHTTP(cfg, httpClient)
}
