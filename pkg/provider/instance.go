package provider

import (
	"context"
	"time"

	"github.com/maxfield-allison/dnscontroller/internal/matcher"
	"github.com/maxfield-allison/dnscontroller/internal/metrics"
)

// Metrics status values.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// ProviderInstance combines a configured Provider with the domain matcher
// that scopes which hostnames it is allowed to touch, and the zone cache
// that backs its batch operations.
//
// Unlike the teacher's fixed-recipe instance (one record type/target per
// provider), each hostname carries its own RecordConfig derived from
// container labels merged with config defaults; the instance only decides
// which hostnames are in scope and drives the batch algorithm in batch.go.
type ProviderInstance struct {
	Provider Provider
	Matcher  *matcher.DomainMatcher

	cache *ZoneCache
}

// NewProviderInstance wraps p with the given domain matcher.
func NewProviderInstance(p Provider, m *matcher.DomainMatcher) *ProviderInstance {
	return &ProviderInstance{Provider: p, Matcher: m, cache: NewZoneCache(p)}
}

// Name returns the provider instance name (delegates to Provider).
func (pi *ProviderInstance) Name() string { return pi.Provider.Name() }

// Type returns the provider type (delegates to Provider).
func (pi *ProviderInstance) Type() string { return pi.Provider.Type() }

// Matches returns true if this instance should handle the given hostname.
func (pi *ProviderInstance) Matches(hostname string) bool {
	return pi.Matcher.Matches(hostname)
}

// Ping checks connectivity to the provider.
func (pi *ProviderInstance) Ping(ctx context.Context) error {
	start := time.Now()
	err := pi.Provider.Ping(ctx)
	duration := time.Since(start).Seconds()

	status := statusSuccess
	healthy := float64(1)
	if err != nil {
		status = statusError
		healthy = 0
	}

	metrics.ProviderAPIRequestsTotal.WithLabelValues(pi.Name(), "ping", status).Inc()
	metrics.ProviderAPIDuration.WithLabelValues(pi.Name(), "ping").Observe(duration)
	metrics.ProviderHealthy.WithLabelValues(pi.Name()).Set(healthy)

	return err
}

// Records returns the instance's current view of the zone, refreshing the
// cache from the provider when forceRefresh is set or the cache has never
// been loaded.
func (pi *ProviderInstance) Records(ctx context.Context, forceRefresh bool) ([]Record, error) {
	return pi.cache.fromCache(ctx, forceRefresh)
}

// EnsureRecords drives the bounded-concurrency batch-upsert algorithm for
// cfgs against this instance's provider and cache.
func (pi *ProviderInstance) EnsureRecords(ctx context.Context, cfgs []RecordConfig) ([]Result, error) {
	if _, err := pi.cache.fromCache(ctx, false); err != nil {
		return nil, err
	}
	return BatchEnsureRecords(ctx, pi.Provider, pi.cache, cfgs)
}

// DeleteRecord removes the record identified by id, instrumented with
// provider metrics. Deleting an already-gone id is treated as success.
func (pi *ProviderInstance) DeleteRecord(ctx context.Context, id string) error {
	start := time.Now()
	err := pi.Provider.Delete(ctx, id)
	duration := time.Since(start).Seconds()

	status := statusSuccess
	if err != nil && !IsNotFound(err) {
		status = statusError
	} else {
		err = nil
	}

	metrics.ProviderAPIRequestsTotal.WithLabelValues(pi.Name(), "delete", status).Inc()
	metrics.ProviderAPIDuration.WithLabelValues(pi.Name(), "delete").Observe(duration)

	if err == nil {
		pi.cache.remove(id)
	}
	return err
}

// ProviderInstanceConfig holds the configuration needed to construct a
// ProviderInstance: identity, the hostname scope it is responsible for, and
// its provider-specific settings (URL, token, zone, etc.).
type ProviderInstanceConfig struct {
	// Name is the instance name (e.g., "internal-dns").
	Name string

	// TypeName is the provider type (e.g., "technitium", "cloudflare").
	TypeName string

	// Domains is a list of glob patterns for matching hostnames.
	// At least one is required.
	Domains []string

	// ExcludeDomains is an optional list of glob patterns to exclude.
	ExcludeDomains []string

	// DomainsRegex is a list of regex patterns (alternative to Domains).
	// If set, Domains must be empty.
	DomainsRegex []string

	// ExcludeDomainsRegex is an optional list of regex patterns to exclude.
	ExcludeDomainsRegex []string

	// ProviderConfig holds provider-specific settings (URL, token, zone, etc.).
	ProviderConfig map[string]string
}

// Validate checks that the configuration is valid.
func (c *ProviderInstanceConfig) Validate() error {
	if c.Name == "" {
		return ErrConfigMissing("name")
	}
	if c.TypeName == "" {
		return ErrConfigMissing("type")
	}

	hasGlob := len(c.Domains) > 0
	hasRegex := len(c.DomainsRegex) > 0

	if !hasGlob && !hasRegex {
		return ErrConfigMissing("domains (or domains_regex)")
	}
	if hasGlob && hasRegex {
		return ErrConfigInvalid("domains", "", "cannot specify both DOMAINS and DOMAINS_REGEX")
	}

	return nil
}

// UseRegex returns true if regex patterns should be used instead of glob.
func (c *ProviderInstanceConfig) UseRegex() bool {
	return len(c.DomainsRegex) > 0
}

// GetIncludes returns the include patterns (either glob or regex).
func (c *ProviderInstanceConfig) GetIncludes() []string {
	if c.UseRegex() {
		return c.DomainsRegex
	}
	return c.Domains
}

// GetExcludes returns the exclude patterns (either glob or regex).
func (c *ProviderInstanceConfig) GetExcludes() []string {
	if c.UseRegex() {
		return c.ExcludeDomainsRegex
	}
	return c.ExcludeDomains
}
