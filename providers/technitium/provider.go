// Package technitium implements the dnscontroller provider interface for Technitium DNS Server.
package technitium

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// Provider implements provider.Provider for Technitium DNS Server.
type Provider struct {
	name   string
	zone   string
	ttl    int
	client *Client
	logger *slog.Logger
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

// New creates a new Technitium provider instance.
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
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	clientOpts := []ClientOption{WithLogger(p.logger)}
	if config.InsecureSkipVerify {
		clientOpts = append(clientOpts, WithInsecureSkipVerify(true))
		p.logger.Warn("TLS certificate verification disabled for Technitium provider",
			slog.String("provider", name),
			slog.String("url", config.URL),
		)
	}

	p.client = NewClient(config.URL, config.Token, clientOpts...)

	return p, nil
}

// NewFromMap creates a new Technitium provider from a configuration map.
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

// Type returns "technitium".
func (p *Provider) Type() string {
	return "technitium"
}

// Init confirms the Technitium server is reachable.
func (p *Provider) Init(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Ping checks connectivity to the Technitium server.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Capabilities returns the provider's feature support. Technitium manages
// all record types this controller supports except MX/CAA/NS/PTR.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Proxyable: false,
		SupportedRecordTypes: []provider.RecordType{
			provider.RecordTypeA,
			provider.RecordTypeAAAA,
			provider.RecordTypeCNAME,
			provider.RecordTypeSRV,
			provider.RecordTypeTXT,
		},
	}
}

// Zone returns the configured DNS zone.
func (p *Provider) Zone() string {
	return p.zone
}

// List returns all A, AAAA, CNAME, TXT, and SRV records in the zone.
func (p *Provider) List(ctx context.Context) ([]provider.Record, error) {
	apiRecords, err := p.client.ListZoneRecords(ctx, p.zone)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	var records []provider.Record
	for _, r := range apiRecords {
		switch r.Type {
		case "A":
			records = append(records, newRecord(provider.RecordTypeA, r.Name, r.RData.IPAddress, r.TTL, p.zone, nil, nil, nil))
		case "AAAA":
			records = append(records, newRecord(provider.RecordTypeAAAA, r.Name, r.RData.IPAddress, r.TTL, p.zone, nil, nil, nil))
		case "CNAME":
			records = append(records, newRecord(provider.RecordTypeCNAME, r.Name, r.RData.CName, r.TTL, p.zone, nil, nil, nil))
		case "TXT":
			records = append(records, newRecord(provider.RecordTypeTXT, r.Name, r.RData.Text, r.TTL, p.zone, nil, nil, nil))
		case "SRV":
			priority := uint16(r.RData.Priority)
			weight := uint16(r.RData.Weight)
			port := uint16(r.RData.Port)
			records = append(records, newRecord(provider.RecordTypeSRV, r.Name, r.RData.SrvTarget, r.TTL, p.zone, &priority, &weight, &port))
		}
		// NS, SOA, and other record types are not managed.
	}

	p.logger.Debug("listed records",
		slog.String("provider", p.name),
		slog.String("zone", p.zone),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// Create adds a new DNS record.
func (p *Provider) Create(ctx context.Context, cfg provider.RecordConfig) (provider.Record, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = p.ttl
	}

	if err := p.add(ctx, cfg, ttl); err != nil {
		return provider.Record{}, err
	}

	p.logger.Info("created record",
		slog.String("provider", p.name),
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
		slog.String("content", cfg.Content),
		slog.Int("ttl", ttl),
	)

	rec := cfg
	rec.TTL = ttl
	return provider.Record{RecordConfig: rec, ID: encodeID(cfg), Zone: p.zone}, nil
}

// Delete removes a DNS record identified by id.
func (p *Provider) Delete(ctx context.Context, id string) error {
	cfg, err := decodeID(id)
	if err != nil {
		return fmt.Errorf("decoding record id: %w", err)
	}

	if err := p.remove(ctx, cfg); err != nil {
		if provider.IsNotFound(err) {
			return nil
		}
		return err
	}

	p.logger.Info("deleted record",
		slog.String("provider", p.name),
		slog.String("id", id),
	)

	return nil
}

// Update modifies the record identified by id. Technitium has no generic
// in-place update API for every record type, so this deletes the old
// record and creates the new one.
func (p *Provider) Update(ctx context.Context, id string, cfg provider.RecordConfig) (provider.Record, error) {
	existing, err := decodeID(id)
	if err != nil {
		return provider.Record{}, fmt.Errorf("decoding record id: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = p.ttl
	}

	if err := p.remove(ctx, existing); err != nil && !provider.IsNotFound(err) {
		return provider.Record{}, fmt.Errorf("removing old %s record for update: %w", existing.Type, err)
	}

	if err := p.add(ctx, cfg, ttl); err != nil {
		return provider.Record{}, fmt.Errorf("creating new %s record for update: %w", cfg.Type, err)
	}

	p.logger.Info("updated record",
		slog.String("provider", p.name),
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
		slog.String("old_content", existing.Content),
		slog.String("new_content", cfg.Content),
		slog.Int("ttl", ttl),
	)

	rec := cfg
	rec.TTL = ttl
	return provider.Record{RecordConfig: rec, ID: encodeID(cfg), Zone: p.zone}, nil
}

func (p *Provider) add(ctx context.Context, cfg provider.RecordConfig, ttl int) error {
	switch cfg.Type {
	case provider.RecordTypeA:
		return p.client.AddARecord(ctx, p.zone, cfg.Name, cfg.Content, ttl)
	case provider.RecordTypeAAAA:
		return p.client.AddAAAARecord(ctx, p.zone, cfg.Name, cfg.Content, ttl)
	case provider.RecordTypeCNAME:
		return p.client.AddCNAMERecord(ctx, p.zone, cfg.Name, cfg.Content, ttl)
	case provider.RecordTypeTXT:
		return p.client.AddTXTRecord(ctx, p.zone, cfg.Name, cfg.Content, ttl)
	case provider.RecordTypeSRV:
		priority, weight, port := srvFields(cfg)
		return p.client.AddSRVRecord(ctx, p.zone, cfg.Name, priority, weight, port, cfg.Content, ttl)
	default:
		return fmt.Errorf("unsupported record type: %s", cfg.Type)
	}
}

func (p *Provider) remove(ctx context.Context, cfg provider.RecordConfig) error {
	switch cfg.Type {
	case provider.RecordTypeA:
		return p.client.DeleteARecord(ctx, p.zone, cfg.Name, cfg.Content)
	case provider.RecordTypeAAAA:
		return p.client.DeleteAAAARecord(ctx, p.zone, cfg.Name, cfg.Content)
	case provider.RecordTypeCNAME:
		return p.client.DeleteCNAMERecord(ctx, p.zone, cfg.Name, cfg.Content)
	case provider.RecordTypeTXT:
		return p.client.DeleteTXTRecord(ctx, p.zone, cfg.Name, cfg.Content)
	case provider.RecordTypeSRV:
		priority, weight, port := srvFields(cfg)
		return p.client.DeleteSRVRecord(ctx, p.zone, cfg.Name, priority, weight, port, cfg.Content)
	default:
		return fmt.Errorf("unsupported record type: %s", cfg.Type)
	}
}

func srvFields(cfg provider.RecordConfig) (priority, weight, port int) {
	if cfg.Priority != nil {
		priority = int(*cfg.Priority)
	}
	if cfg.Weight != nil {
		weight = int(*cfg.Weight)
	}
	if cfg.Port != nil {
		port = int(*cfg.Port)
	}
	return
}

// newRecord builds a provider.Record from API fields, deriving its id from
// the fields that identify it in the Technitium zone.
func newRecord(rt provider.RecordType, name, content string, ttl int, zone string, priority, weight, port *uint16) provider.Record {
	cfg := provider.RecordConfig{
		Type:     rt,
		Name:     name,
		Content:  content,
		TTL:      ttl,
		Priority: priority,
		Weight:   weight,
		Port:     port,
	}
	return provider.Record{RecordConfig: cfg, ID: encodeID(cfg), Zone: zone}
}

// encodeID builds an opaque id from the fields Technitium needs to locate
// a record again: it has no provider-assigned record ID of its own.
func encodeID(cfg provider.RecordConfig) string {
	if cfg.Type == provider.RecordTypeSRV {
		priority, weight, port := srvFields(cfg)
		return fmt.Sprintf("%s|%s|%d|%d|%d|%s", cfg.Name, cfg.Type, priority, weight, port, cfg.Content)
	}
	return fmt.Sprintf("%s|%s|%s", cfg.Name, cfg.Type, cfg.Content)
}

// decodeID reverses encodeID into enough of a RecordConfig to delete or
// recreate the record.
func decodeID(id string) (provider.RecordConfig, error) {
	parts := strings.SplitN(id, "|", 3)
	if len(parts) != 3 {
		return provider.RecordConfig{}, fmt.Errorf("malformed record id %q", id)
	}
	name, rt := parts[0], provider.RecordType(parts[1])

	if rt == provider.RecordTypeSRV {
		srvParts := strings.SplitN(parts[2], "|", 4)
		if len(srvParts) != 4 {
			return provider.RecordConfig{}, fmt.Errorf("malformed SRV record id %q", id)
		}
		var priority, weight, port int
		if _, err := fmt.Sscanf(srvParts[0], "%d", &priority); err != nil {
			return provider.RecordConfig{}, fmt.Errorf("malformed SRV priority in id %q", id)
		}
		if _, err := fmt.Sscanf(srvParts[1], "%d", &weight); err != nil {
			return provider.RecordConfig{}, fmt.Errorf("malformed SRV weight in id %q", id)
		}
		if _, err := fmt.Sscanf(srvParts[2], "%d", &port); err != nil {
			return provider.RecordConfig{}, fmt.Errorf("malformed SRV port in id %q", id)
		}
		p16, w16, pt16 := uint16(priority), uint16(weight), uint16(port)
		return provider.RecordConfig{
			Type:     rt,
			Name:     name,
			Content:  srvParts[3],
			Priority: &p16,
			Weight:   &w16,
			Port:     &pt16,
		}, nil
	}

	return provider.RecordConfig{Type: rt, Name: name, Content: parts[2]}, nil
}

// Factory returns a provider.Factory function for use with the provider registry.
func Factory() provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		return NewFromMap(name, config)
	}
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
