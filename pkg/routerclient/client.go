// Package routerclient talks to a reverse proxy's router catalog API: a
// read-only HTTP endpoint returning a mapping of router name to its host
// rule and backing service. It never talks to the DNS provider or the
// Docker socket — just the catalog.
package routerclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/maxfield-allison/dnscontroller/pkg/httputil"
)

// Router is one entry from the catalog: a host-match rule and the name of
// the service it routes to.
type Router struct {
	Rule    string
	Service string
}

// Catalog is the full router-name -> Router mapping returned by Fetch.
type Catalog map[string]Router

// Client fetches a router catalog over HTTP.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBasicAuth sets optional basic-auth credentials for the catalog request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithTimeout sets the HTTP request timeout (defaults to httputil.DefaultTimeout, 30s).
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = httputil.NewClient(&httputil.ClientConfig{Timeout: timeout})
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a router catalog client for baseURL, the full catalog
// endpoint (e.g. "http://traefik:8080/api/http/routers").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: httputil.NewClient(nil),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rawRouter mirrors Traefik's /api/http/routers response shape: a JSON
// array of objects carrying at least "name"/"rule"/"service". Other reverse
// proxies emitting the same shape are equally readable.
type rawRouter struct {
	Name    string `json:"name"`
	Rule    string `json:"rule"`
	Service string `json:"service"`
}

// Fetch retrieves the current router catalog. Per spec, a malformed or
// unreachable catalog must never abort the monitor pipeline: Fetch returns
// an empty Catalog and a non-nil error, and callers are expected to log the
// error and substitute the empty set rather than propagate it further up.
func (c *Client) Fetch(ctx context.Context) (Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return Catalog{}, fmt.Errorf("building router catalog request: %w", err)
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Catalog{}, fmt.Errorf("fetching router catalog: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading router catalog response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Catalog{}, fmt.Errorf("router catalog returned status %d", resp.StatusCode)
	}

	catalog, err := parseCatalog(body)
	if err != nil {
		return Catalog{}, fmt.Errorf("parsing router catalog: %w", err)
	}

	c.logger.Debug("fetched router catalog", slog.Int("routers", len(catalog)))
	return catalog, nil
}

// parseCatalog accepts both shapes seen in the wild: a JSON array of router
// objects (Traefik's native shape) and a JSON object keyed by router name.
func parseCatalog(body []byte) (Catalog, error) {
	catalog := Catalog{}

	var asArray []rawRouter
	if err := json.Unmarshal(body, &asArray); err == nil {
		for _, r := range asArray {
			if r.Name == "" {
				continue
			}
			catalog[r.Name] = Router{Rule: r.Rule, Service: r.Service}
		}
		return catalog, nil
	}

	var asObject map[string]rawRouter
	if err := json.Unmarshal(body, &asObject); err != nil {
		return Catalog{}, err
	}
	for name, r := range asObject {
		catalog[name] = Router{Rule: r.Rule, Service: r.Service}
	}
	return catalog, nil
}
