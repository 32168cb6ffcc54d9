// Package pihole implements the dnscontroller provider interface for Pi-hole DNS.
package pihole

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
	"github.com/maxfield-allison/dnscontroller/providers/dnsmasq"
)

// Provider implements provider.Provider for Pi-hole DNS.
// It supports two modes:
// - API mode: Uses Pi-hole's Admin API (supports both v5 and v6)
// - File mode: Uses dnsmasq-style config files (for containerized Pi-hole)
type Provider struct {
	name       string
	zone       string
	ttl        int
	mode       Mode
	apiVersion APIVersion   // Detected or configured API version
	httpClient *http.Client // Custom HTTP client (optional, API mode only)
	logger     *slog.Logger

	// API mode client (implements DNSClient interface)
	dnsClient DNSClient

	// File mode provider (wraps dnsmasq)
	fileProvider *dnsmasq.Provider
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProviderHTTPClient sets a custom HTTP client for the provider.
// This allows the factory to pass in a pre-configured HTTP client with
// timeout, TLS settings, and user-agent already applied.
// Only used in API mode; file mode does not use HTTP.
func WithProviderHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithAPIClient sets a custom API client (for testing).
// The client must implement the DNSClient interface.
func WithAPIClient(client DNSClient) ProviderOption {
	return func(p *Provider) {
		p.dnsClient = client
	}
}

// WithFileProvider sets a custom file provider (for testing).
func WithFileProvider(fp *dnsmasq.Provider) ProviderOption {
	return func(p *Provider) {
		p.fileProvider = fp
	}
}

// New creates a new Pi-hole provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:   name,
		zone:   config.Zone,
		ttl:    config.TTL,
		mode:   config.Mode,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	// Initialize the appropriate client based on mode
	switch config.Mode {
	case ModeAPI:
		if p.dnsClient == nil {
			// Determine API version (detect or use configured)
			apiVersion, err := p.resolveAPIVersion(config)
			if err != nil {
				return nil, fmt.Errorf("determining Pi-hole API version: %w", err)
			}
			p.apiVersion = apiVersion

			// Create the appropriate client based on version
			switch apiVersion {
			case APIVersionV5:
				apiOpts := []APIClientOption{WithAPILogger(p.logger)}
				if p.httpClient != nil {
					apiOpts = append(apiOpts, WithHTTPClient(p.httpClient))
				}
				p.dnsClient = NewAPIClient(
					config.URL,
					config.Password,
					config.Zone,
					apiOpts...,
				)
			case APIVersionV6:
				v6Opts := []V6APIClientOption{WithV6Logger(p.logger)}
				if p.httpClient != nil {
					v6Opts = append(v6Opts, WithV6HTTPClient(p.httpClient))
				}
				p.dnsClient = NewV6APIClient(
					config.URL,
					config.Password,
					config.Zone,
					v6Opts...,
				)
			default:
				return nil, fmt.Errorf("unsupported API version: %s", apiVersion)
			}
		}
	case ModeFile:
		if p.fileProvider == nil {
			// Create a dnsmasq provider for file-based operations
			dnsmasqConfig := &dnsmasq.Config{
				ConfigDir:     config.ConfigDir,
				ConfigFile:    config.ConfigFile,
				ReloadCommand: config.ReloadCommand,
				Zone:          config.Zone,
				TTL:           config.TTL,
			}
			fp, err := dnsmasq.New(name, dnsmasqConfig, dnsmasq.WithProviderLogger(p.logger))
			if err != nil {
				return nil, fmt.Errorf("creating dnsmasq provider for file mode: %w", err)
			}
			p.fileProvider = fp
		}
	}

	return p, nil
}

// NewFromMap creates a new Pi-hole provider from a configuration map.
// This is used by the provider registry Factory pattern.
func NewFromMap(name string, config map[string]string) (*Provider, error) {
	cfg, err := LoadConfigFromMap(name, config)
	if err != nil {
		return nil, err
	}

	return New(name, cfg)
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns "pihole".
func (p *Provider) Type() string {
	return "pihole"
}

// Capabilities returns the provider's feature support. Both modes are
// restricted to A/AAAA/CNAME: API mode's custom-DNS/CNAME endpoints have
// no TXT or SRV concept, and file mode inherits dnsmasq's directive set.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Proxyable: false,
		SupportedRecordTypes: []provider.RecordType{
			provider.RecordTypeA,
			provider.RecordTypeAAAA,
			provider.RecordTypeCNAME,
		},
	}
}

// Zone returns the configured DNS zone.
func (p *Provider) Zone() string {
	return p.zone
}

// Mode returns the provider's operating mode.
func (p *Provider) Mode() Mode {
	return p.mode
}

// Init verifies connectivity to Pi-hole in the configured mode.
func (p *Provider) Init(ctx context.Context) error {
	return p.Ping(ctx)
}

// Ping checks connectivity to Pi-hole.
func (p *Provider) Ping(ctx context.Context) error {
	switch p.mode {
	case ModeAPI:
		// For API mode, try to list records to verify connectivity
		_, err := p.dnsClient.List(ctx)
		return err
	case ModeFile:
		return p.fileProvider.Ping(ctx)
	default:
		return fmt.Errorf("unknown mode: %s", p.mode)
	}
}

// List returns all managed records from Pi-hole.
func (p *Provider) List(ctx context.Context) ([]provider.Record, error) {
	switch p.mode {
	case ModeAPI:
		return p.listAPI(ctx)
	case ModeFile:
		return p.fileProvider.List(ctx)
	default:
		return nil, fmt.Errorf("unknown mode: %s", p.mode)
	}
}

// listAPI retrieves records via the Pi-hole API.
func (p *Provider) listAPI(ctx context.Context) ([]provider.Record, error) {
	piholeRecords, err := p.dnsClient.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	var records []provider.Record
	for _, r := range piholeRecords {
		cfg := provider.RecordConfig{
			Type:    r.Type,
			Name:    r.Hostname,
			Content: r.Target,
			TTL:     p.ttl,
		}
		records = append(records, provider.Record{
			RecordConfig: cfg,
			ID:           encodeID(cfg),
			Zone:         p.zone,
		})
	}

	p.logger.Debug("listed records",
		slog.String("provider", p.name),
		slog.String("mode", string(p.mode)),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// Create adds a new DNS record.
func (p *Provider) Create(ctx context.Context, cfg provider.RecordConfig) (provider.Record, error) {
	if err := p.validateType(cfg.Type); err != nil {
		return provider.Record{}, err
	}

	switch p.mode {
	case ModeAPI:
		return p.createAPI(ctx, cfg)
	case ModeFile:
		return p.fileProvider.Create(ctx, cfg)
	default:
		return provider.Record{}, fmt.Errorf("unknown mode: %s", p.mode)
	}
}

// createAPI creates a record via the Pi-hole API.
func (p *Provider) createAPI(ctx context.Context, cfg provider.RecordConfig) (provider.Record, error) {
	rec := piholeRecord{
		Hostname: cfg.Name,
		Type:     cfg.Type,
		Target:   cfg.Content,
	}

	if err := p.dnsClient.Create(ctx, rec); err != nil {
		return provider.Record{}, fmt.Errorf("creating %s record: %w", cfg.Type, err)
	}

	p.logger.Info("created record",
		slog.String("provider", p.name),
		slog.String("mode", string(p.mode)),
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
		slog.String("content", cfg.Content),
	)

	return provider.Record{RecordConfig: cfg, ID: encodeID(cfg), Zone: p.zone}, nil
}

// Delete removes a DNS record.
func (p *Provider) Delete(ctx context.Context, id string) error {
	switch p.mode {
	case ModeAPI:
		return p.deleteAPI(ctx, id)
	case ModeFile:
		return p.fileProvider.Delete(ctx, id)
	default:
		return fmt.Errorf("unknown mode: %s", p.mode)
	}
}

// deleteAPI deletes a record via the Pi-hole API.
func (p *Provider) deleteAPI(ctx context.Context, id string) error {
	cfg, err := decodeID(id)
	if err != nil {
		return fmt.Errorf("decoding record id: %w", err)
	}

	rec := piholeRecord{
		Hostname: cfg.Name,
		Type:     cfg.Type,
		Target:   cfg.Content,
	}

	if err := p.dnsClient.Delete(ctx, rec); err != nil {
		return fmt.Errorf("deleting %s record: %w", cfg.Type, err)
	}

	p.logger.Info("deleted record",
		slog.String("provider", p.name),
		slog.String("mode", string(p.mode)),
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
	)

	return nil
}

// Update replaces a DNS record. Neither the Pi-hole API nor the
// dnsmasq-backed file mode exposes an in-place update, so this deletes
// the existing record and creates the replacement.
func (p *Provider) Update(ctx context.Context, id string, cfg provider.RecordConfig) (provider.Record, error) {
	if err := p.validateType(cfg.Type); err != nil {
		return provider.Record{}, err
	}

	switch p.mode {
	case ModeFile:
		return p.fileProvider.Update(ctx, id, cfg)
	case ModeAPI:
		if err := p.deleteAPI(ctx, id); err != nil {
			return provider.Record{}, fmt.Errorf("removing previous record: %w", err)
		}
		return p.createAPI(ctx, cfg)
	default:
		return provider.Record{}, fmt.Errorf("unknown mode: %s", p.mode)
	}
}

func (p *Provider) validateType(rt provider.RecordType) error {
	switch rt {
	case provider.RecordTypeA, provider.RecordTypeAAAA, provider.RecordTypeCNAME:
		return nil
	case provider.RecordTypeTXT, provider.RecordTypeSRV:
		return fmt.Errorf("%s records not supported by Pi-hole provider", rt)
	default:
		return fmt.Errorf("unsupported record type: %s", rt)
	}
}

// encodeID builds an opaque, reversible record identifier. Pi-hole's
// custom-DNS/CNAME API endpoints hand back no durable per-record ID.
func encodeID(cfg provider.RecordConfig) string {
	return fmt.Sprintf("%s|%s|%s", cfg.Name, cfg.Type, cfg.Content)
}

// decodeID reverses encodeID.
func decodeID(id string) (provider.RecordConfig, error) {
	parts := strings.SplitN(id, "|", 3)
	if len(parts) != 3 {
		return provider.RecordConfig{}, fmt.Errorf("malformed record id: %s", id)
	}

	return provider.RecordConfig{
		Name:    parts[0],
		Type:    provider.RecordType(parts[1]),
		Content: parts[2],
	}, nil
}

// resolveAPIVersion determines which Pi-hole API version to use.
// If API_VERSION is set to "v5" or "v6", that version is used.
// Otherwise, the version is auto-detected by probing the Pi-hole instance.
func (p *Provider) resolveAPIVersion(config *Config) (APIVersion, error) {
	// Check for explicit version configuration
	if config.APIVersion != "" && config.APIVersion != "auto" {
		switch strings.ToLower(config.APIVersion) {
		case "v5":
			p.logger.Info("using configured Pi-hole API version",
				slog.String("version", "v5"))
			return APIVersionV5, nil
		case "v6":
			p.logger.Info("using configured Pi-hole API version",
				slog.String("version", "v6"))
			return APIVersionV6, nil
		}
	}

	// Auto-detect version by probing the Pi-hole instance
	detector := NewVersionDetector(config.URL, p.httpClient, p.logger)
	version, versionStr, err := detector.Detect(context.Background())
	if err != nil {
		return APIVersionUnknown, err
	}

	p.logger.Info("auto-detected Pi-hole API version",
		slog.String("version", version.String()),
		slog.String("pihole_version", versionStr))

	return version, nil
}

// APIVersion returns the detected or configured API version.
// Returns APIVersionUnknown if the provider is in file mode.
func (p *Provider) APIVersion() APIVersion {
	return p.apiVersion
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
