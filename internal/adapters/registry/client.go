// Package registry implements the Registry port against a crates.io-style HTTP API.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	apiPrefix = "api/v1"

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 1 << 20
)

// Client implements ports.Registry over HTTP.
type Client struct {
	baseURL    string
	resource   string
	envelope   string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client for cfg. The connection pool is capped at the
// configured concurrency so connections never outnumber in-flight lookups.
func NewClient(cfg domain.Config) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	limit := cfg.Concurrency
	if limit == 0 {
		limit = domain.DefaultConcurrency
	}
	if limit > 0 {
		transport.MaxConnsPerHost = limit
		transport.MaxIdleConnsPerHost = limit
	}

	return newClientWithHTTP(cfg, &http.Client{Transport: transport})
}

// newClientWithHTTP creates a Client with a custom http client (used for testing).
func newClientWithHTTP(cfg domain.Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.Registry, "/"),
		resource:   cfg.Resource,
		envelope:   cfg.Envelope,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
	}, nil
}

// Lookup resolves the latest version of name.
// Transport failures, timeouts, unexpected statuses, malformed bodies and even
// panics in the transport all come back as a Failed outcome.
func (c *Client) Lookup(ctx context.Context, name domain.PackageName) (outcome domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = domain.Failed(name, zerr.With(domain.ErrLookupPanicked, "panic", fmt.Sprint(r)))
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	meta, err := c.fetch(ctx, name)
	switch {
	case errors.Is(err, domain.ErrPackageNotFound):
		return domain.NotFound(name)
	case err != nil:
		return domain.Failed(name, err)
	default:
		return domain.Found(name, meta.MaxVersion)
	}
}

// URL returns the endpoint queried for name.
func (c *Client) URL(name domain.PackageName) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, apiPrefix, url.PathEscape(c.resource), url.PathEscape(name.String()))
}

// fetch performs the single request for name.
// A 404 is reported as domain.ErrPackageNotFound.
func (c *Client) fetch(ctx context.Context, name domain.PackageName) (*packageMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(name), http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrRegistryRequestFailed.Error())
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrRegistryRequestFailed.Error())
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrPackageNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, zerr.With(domain.ErrRegistryUnexpectedStatus, "status_code", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrRegistryRequestFailed.Error())
	}

	return c.decode(body)
}

func (c *Client) decode(body []byte) (*packageMetadata, error) {
	var document map[string]json.RawMessage
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, zerr.Wrap(err, domain.ErrRegistryParseFailed.Error())
	}

	raw, ok := document[c.envelope]
	if !ok {
		return nil, zerr.With(domain.ErrRegistryParseFailed, "missing", c.envelope)
	}

	var meta packageMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, zerr.Wrap(err, domain.ErrRegistryParseFailed.Error())
	}

	if meta.Name == "" || meta.MaxVersion == "" {
		return nil, zerr.With(domain.ErrRegistryParseFailed, "missing", c.envelope+".name or "+c.envelope+".max_version")
	}

	return &meta, nil
}

// Ensure Client satisfies the interface.
var _ ports.Registry = (*Client)(nil)
