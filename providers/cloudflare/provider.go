// Package cloudflare implements the dnscontroller provider interface for Cloudflare DNS.
package cloudflare

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// Provider implements provider.Provider for Cloudflare DNS.
type Provider struct {
	name    string
	zone    string // Zone name (for display/logging)
	zoneID  string // Resolved zone ID
	ttl     int
	proxied bool
	client  *Client
	logger  *slog.Logger

	// zoneIDOnce ensures zone ID lookup happens only once
	zoneIDOnce sync.Once
	zoneIDErr  error
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

// New creates a new Cloudflare provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:    name,
		zone:    config.Zone,
		zoneID:  config.ZoneID,
		ttl:     config.TTL,
		proxied: config.Proxied,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.client = NewClient(config.Token, WithLogger(p.logger))

	return p, nil
}

// NewFromMap creates a new Cloudflare provider from a configuration map.
// This is used by the provider registry Factory pattern.
func NewFromMap(name string, config map[string]string) (*Provider, error) {
	cfg := &Config{
		Token:   config["TOKEN"],
		ZoneID:  config["ZONE_ID"],
		Zone:    config["ZONE"],
		TTL:     DefaultTTL,
		Proxied: false,
	}

	if ttlStr, ok := config["TTL"]; ok && ttlStr != "" {
		var ttl int
		if _, err := fmt.Sscanf(ttlStr, "%d", &ttl); err == nil {
			cfg.TTL = ttl
		}
	}

	if proxiedStr, ok := config["PROXIED"]; ok && proxiedStr != "" {
		cfg.Proxied = parseBool(proxiedStr)
	}

	return New(name, cfg)
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns "cloudflare".
func (p *Provider) Type() string {
	return "cloudflare"
}

// Init resolves the zone ID and confirms the API token is usable.
func (p *Provider) Init(ctx context.Context) error {
	if _, err := p.ZoneID(ctx); err != nil {
		return fmt.Errorf("resolving zone: %w", err)
	}
	return p.client.Ping(ctx)
}

// Ping checks connectivity to the Cloudflare API.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Capabilities returns the provider's feature support. Cloudflare can proxy
// A/AAAA/CNAME records and manages A, AAAA, CNAME, and TXT record types.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Proxyable: true,
		SupportedRecordTypes: []provider.RecordType{
			provider.RecordTypeA,
			provider.RecordTypeAAAA,
			provider.RecordTypeCNAME,
			provider.RecordTypeTXT,
		},
	}
}

// Zone returns the configured DNS zone name.
func (p *Provider) Zone() string {
	return p.zone
}

// ZoneID returns the resolved zone ID, looking it up if necessary.
func (p *Provider) ZoneID(ctx context.Context) (string, error) {
	if p.zoneID != "" {
		return p.zoneID, nil
	}

	p.zoneIDOnce.Do(func() {
		p.zoneID, p.zoneIDErr = p.client.GetZoneID(ctx, p.zone)
	})

	if p.zoneIDErr != nil {
		return "", p.zoneIDErr
	}

	return p.zoneID, nil
}

// List returns all A, AAAA, CNAME, and TXT records in the zone.
func (p *Provider) List(ctx context.Context) ([]provider.Record, error) {
	zoneID, err := p.ZoneID(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting zone ID: %w", err)
	}

	var records []provider.Record
	for _, rt := range []provider.RecordType{provider.RecordTypeA, provider.RecordTypeAAAA, provider.RecordTypeCNAME, provider.RecordTypeTXT} {
		raw, err := p.client.ListRecords(ctx, zoneID, string(rt))
		if err != nil {
			return nil, fmt.Errorf("listing %s records: %w", rt, err)
		}
		for _, r := range raw {
			records = append(records, toRecord(r, zoneID, rt))
		}
	}

	p.logger.Debug("listed records",
		slog.String("provider", p.name),
		slog.String("zone_id", zoneID),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// Create adds a new DNS record.
func (p *Provider) Create(ctx context.Context, cfg provider.RecordConfig) (provider.Record, error) {
	zoneID, err := p.ZoneID(ctx)
	if err != nil {
		return provider.Record{}, fmt.Errorf("getting zone ID: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = p.ttl
	}

	proxied := p.proxied
	if cfg.Proxied != nil {
		proxied = *cfg.Proxied
	}
	// TXT records cannot be proxied by Cloudflare.
	if cfg.Type == provider.RecordTypeTXT {
		proxied = false
	}
	if proxied && ttl < 60 {
		ttl = provider.TTLAuto
	}

	id, err := p.client.CreateRecord(ctx, zoneID, string(cfg.Type), cfg.Name, cfg.Content, ttl, proxied)
	if err != nil {
		return provider.Record{}, fmt.Errorf("creating %s record: %w", cfg.Type, err)
	}

	p.logger.Info("created record",
		slog.String("provider", p.name),
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
		slog.String("content", cfg.Content),
		slog.Int("ttl", ttl),
		slog.Bool("proxied", proxied),
	)

	rec := cfg
	rec.TTL = ttl
	if cfg.Type != provider.RecordTypeTXT {
		rec.Proxied = &proxied
	}
	return provider.Record{RecordConfig: rec, ID: id, Zone: p.zone}, nil
}

// Delete removes a DNS record by ID. A not-found response is success.
func (p *Provider) Delete(ctx context.Context, id string) error {
	zoneID, err := p.ZoneID(ctx)
	if err != nil {
		return fmt.Errorf("getting zone ID: %w", err)
	}

	if err := p.client.DeleteRecord(ctx, zoneID, id); err != nil {
		if provider.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("deleting record: %w", err)
	}

	p.logger.Info("deleted record",
		slog.String("provider", p.name),
		slog.String("id", id),
	)

	return nil
}

// Update modifies the record identified by id in place.
func (p *Provider) Update(ctx context.Context, id string, cfg provider.RecordConfig) (provider.Record, error) {
	zoneID, err := p.ZoneID(ctx)
	if err != nil {
		return provider.Record{}, fmt.Errorf("getting zone ID: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = p.ttl
	}

	proxied := p.proxied
	if cfg.Proxied != nil {
		proxied = *cfg.Proxied
	}
	if cfg.Type == provider.RecordTypeTXT {
		proxied = false
	}

	if err := p.client.UpdateRecord(ctx, zoneID, id, string(cfg.Type), cfg.Name, cfg.Content, ttl, proxied); err != nil {
		return provider.Record{}, fmt.Errorf("updating %s record: %w", cfg.Type, err)
	}

	p.logger.Info("updated record",
		slog.String("provider", p.name),
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
		slog.String("content", cfg.Content),
		slog.Int("ttl", ttl),
	)

	rec := cfg
	rec.TTL = ttl
	if cfg.Type != provider.RecordTypeTXT {
		rec.Proxied = &proxied
	}
	return provider.Record{RecordConfig: rec, ID: id, Zone: p.zone}, nil
}

// toRecord converts a Cloudflare API record into the provider-neutral shape.
func toRecord(r dnsRecord, zoneID string, rt provider.RecordType) provider.Record {
	rec := provider.Record{
		RecordConfig: provider.RecordConfig{
			Type:    rt,
			Name:    r.Name,
			Content: r.Content,
			TTL:     r.TTL,
		},
		ID:   r.ID,
		Zone: zoneID,
	}
	if rt != provider.RecordTypeTXT {
		proxied := r.Proxied
		rec.Proxied = &proxied
	}
	return rec
}

// Factory returns a provider.Factory function for use with the provider registry.
func Factory() provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		return NewFromMap(name, config)
	}
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
