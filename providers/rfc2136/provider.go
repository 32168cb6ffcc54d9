package rfc2136

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maxfield-allison/dnscontroller/pkg/dnsupdate"
	"github.com/maxfield-allison/dnscontroller/pkg/provider"

	"github.com/miekg/dns"
)

// Provider implements provider.Provider for RFC 2136 Dynamic DNS servers.
type Provider struct {
	name    string
	zone    string
	ttl     int
	client  *dnsupdate.Client
	catalog *dnsupdate.Catalog
	logger  *slog.Logger
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

// New creates a new RFC 2136 provider instance.
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

	client, err := dnsupdate.NewClient(config.ToDNSUpdateConfig(), dnsupdate.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("creating dnsupdate client: %w", err)
	}

	p.client = client
	p.catalog = dnsupdate.NewCatalog(client, config.Zone, p.logger)

	return p, nil
}

// NewFromMap creates a new RFC 2136 provider from a flat configuration map,
// as supplied by the provider registry.
func NewFromMap(instanceName string, configMap map[string]string, opts ...ProviderOption) (*Provider, error) {
	config, err := LoadConfigFromMap(instanceName, configMap)
	if err != nil {
		return nil, err
	}

	return New(instanceName, config, opts...)
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns "rfc2136".
func (p *Provider) Type() string {
	return "rfc2136"
}

// Capabilities returns the provider's feature support.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Proxyable: false,
		SupportedRecordTypes: []provider.RecordType{
			provider.RecordTypeA,
			provider.RecordTypeAAAA,
			provider.RecordTypeCNAME,
			provider.RecordTypeTXT,
			provider.RecordTypeSRV,
			provider.RecordTypeMX,
		},
	}
}

// Zone returns the configured DNS zone.
func (p *Provider) Zone() string {
	return p.zone
}

// Init verifies connectivity to the DNS server.
func (p *Provider) Init(ctx context.Context) error {
	return p.Ping(ctx)
}

// Ping checks connectivity to the DNS server.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// queryTypes are the record types probed per catalog hostname in List.
var queryTypes = []uint16{dns.TypeA, dns.TypeAAAA, dns.TypeCNAME, dns.TypeTXT, dns.TypeSRV, dns.TypeMX}

// List returns all managed records in the zone.
//
// RFC 2136 has no enumeration primitive short of AXFR, which many servers
// disable for security. Instead the provider maintains a catalog of managed
// hostnames in chunked TXT records:
//
//	_dnsweaver-catalog-0.<zone>  TXT "host1" "host2" ...
//	_dnsweaver-catalog-1.<zone>  TXT "host101" "host102" ...
//
// List walks the catalog and queries each hostname for every supported
// record type, assembling the result from live answers rather than trusting
// catalog membership alone.
func (p *Provider) List(ctx context.Context) ([]provider.Record, error) {
	if p.client == nil || p.catalog == nil {
		p.logger.Debug("rfc2136 List() called with no client/catalog configured, returning empty",
			slog.String("zone", p.zone),
		)
		return []provider.Record{}, nil
	}

	hostnames, err := p.catalog.Hostnames(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	if len(hostnames) == 0 {
		return []provider.Record{}, nil
	}

	var records []provider.Record
	for _, hostname := range hostnames {
		fqdn := p.ensureFQDN(hostname)

		for _, qtype := range queryTypes {
			dnsRecords, err := p.client.Query(ctx, fqdn, qtype)
			if err != nil {
				p.logger.Debug("query failed for hostname",
					slog.String("hostname", hostname),
					slog.String("type", dns.TypeToString[qtype]),
					slog.String("error", err.Error()),
				)
				continue
			}

			for _, r := range dnsRecords {
				cfg, err := p.fromRFC2136Record(r)
				if err != nil {
					continue
				}
				records = append(records, provider.Record{
					RecordConfig: cfg,
					ID:           encodeID(cfg),
					Zone:         p.zone,
				})
			}
		}
	}

	stats := p.catalog.Stats()
	p.logger.Debug("rfc2136 List() complete",
		slog.String("zone", p.zone),
		slog.Int("catalog_hostnames", stats.TotalHostnames),
		slog.Int("catalog_chunks", stats.ChunkCount),
		slog.Int("records_returned", len(records)),
	)

	return records, nil
}

// Create adds a new DNS record and registers its hostname in the catalog
// so that List can later discover it without AXFR.
func (p *Provider) Create(ctx context.Context, cfg provider.RecordConfig) (provider.Record, error) {
	if err := cfg.Validate(); err != nil {
		return provider.Record{}, fmt.Errorf("invalid record: %w", err)
	}

	dnsRecord, err := p.toRFC2136Record(cfg)
	if err != nil {
		return provider.Record{}, fmt.Errorf("converting record: %w", err)
	}

	if err := p.client.Create(ctx, dnsRecord); err != nil {
		return provider.Record{}, fmt.Errorf("creating record %s: %w", cfg.Name, err)
	}

	p.logger.Info("rfc2136 record created",
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
		slog.String("content", cfg.Content),
	)

	if p.catalog != nil {
		if err := p.catalog.Add(ctx, cfg.Name); err != nil {
			// The DNS record was created successfully; the catalog can be
			// repaired on a later reconciliation pass.
			p.logger.Warn("failed to add hostname to catalog",
				slog.String("hostname", cfg.Name),
				slog.String("error", err.Error()),
			)
		}
	}

	return provider.Record{
		RecordConfig: cfg,
		ID:           encodeID(cfg),
		Zone:         p.zone,
	}, nil
}

// Delete removes a DNS record and unregisters its hostname from the catalog.
func (p *Provider) Delete(ctx context.Context, id string) error {
	cfg, err := decodeID(id)
	if err != nil {
		return fmt.Errorf("decoding record id: %w", err)
	}

	dnsRecord, err := p.toRFC2136Record(cfg)
	if err != nil {
		return fmt.Errorf("converting record: %w", err)
	}

	if err := p.client.Delete(ctx, dnsRecord); err != nil {
		return fmt.Errorf("deleting record %s: %w", cfg.Name, err)
	}

	if p.catalog != nil {
		if err := p.catalog.Remove(ctx, cfg.Name); err != nil {
			p.logger.Warn("failed to remove hostname from catalog",
				slog.String("hostname", cfg.Name),
				slog.String("error", err.Error()),
			)
		}
	}

	p.logger.Info("rfc2136 record deleted",
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
	)

	return nil
}

// Update modifies an existing DNS record in place. RFC 2136 supports a
// single atomic UPDATE message combining the removal of the old RR and the
// insertion of the new one.
func (p *Provider) Update(ctx context.Context, id string, cfg provider.RecordConfig) (provider.Record, error) {
	if err := cfg.Validate(); err != nil {
		return provider.Record{}, fmt.Errorf("invalid record: %w", err)
	}

	oldCfg, err := decodeID(id)
	if err != nil {
		return provider.Record{}, fmt.Errorf("decoding record id: %w", err)
	}

	oldRecord, err := p.toRFC2136Record(oldCfg)
	if err != nil {
		return provider.Record{}, fmt.Errorf("converting existing record: %w", err)
	}

	newRecord, err := p.toRFC2136Record(cfg)
	if err != nil {
		return provider.Record{}, fmt.Errorf("converting desired record: %w", err)
	}

	if err := p.client.Update(ctx, oldRecord, newRecord); err != nil {
		return provider.Record{}, fmt.Errorf("updating record %s: %w", oldCfg.Name, err)
	}

	if p.catalog != nil && oldCfg.Name != cfg.Name {
		if err := p.catalog.Add(ctx, cfg.Name); err != nil {
			p.logger.Warn("failed to add hostname to catalog",
				slog.String("hostname", cfg.Name),
				slog.String("error", err.Error()),
			)
		}
		if err := p.catalog.Remove(ctx, oldCfg.Name); err != nil {
			p.logger.Warn("failed to remove hostname from catalog",
				slog.String("hostname", oldCfg.Name),
				slog.String("error", err.Error()),
			)
		}
	}

	p.logger.Info("rfc2136 record updated",
		slog.String("name", oldCfg.Name),
		slog.String("type", string(oldCfg.Type)),
		slog.String("old_content", oldCfg.Content),
		slog.String("new_content", cfg.Content),
	)

	return provider.Record{
		RecordConfig: cfg,
		ID:           encodeID(cfg),
		Zone:         p.zone,
	}, nil
}

// toRFC2136Record converts a provider.RecordConfig to dnsupdate.Record.
func (p *Provider) toRFC2136Record(cfg provider.RecordConfig) (dnsupdate.Record, error) {
	name := p.ensureFQDN(cfg.Name)

	ttl := uint32(p.ttl)
	if cfg.TTL > 0 && cfg.TTL != provider.TTLAuto {
		ttl = uint32(cfg.TTL)
	}

	r := dnsupdate.Record{
		Name: name,
		Type: recordTypeToUint16(cfg.Type),
		TTL:  ttl,
	}

	switch cfg.Type {
	case provider.RecordTypeA, provider.RecordTypeAAAA, provider.RecordTypeTXT:
		r.RData = cfg.Content

	case provider.RecordTypeCNAME:
		target := cfg.Content
		if !strings.HasSuffix(target, ".") {
			target += "."
		}
		r.RData = target

	case provider.RecordTypeSRV:
		target := cfg.Content
		if !strings.HasSuffix(target, ".") {
			target += "."
		}
		r.RData = target

		if cfg.Priority != nil {
			r.Priority = *cfg.Priority
		}
		if cfg.Weight != nil {
			r.Weight = *cfg.Weight
		}
		if cfg.Port != nil {
			r.Port = *cfg.Port
		}

	case provider.RecordTypeMX:
		target := cfg.Content
		if !strings.HasSuffix(target, ".") {
			target += "."
		}
		r.RData = target

		if cfg.Priority != nil {
			r.Priority = *cfg.Priority
		}

	default:
		return r, fmt.Errorf("unsupported record type: %s", cfg.Type)
	}

	return r, nil
}

// recordTypeToUint16 converts provider.RecordType to dns.Type.
func recordTypeToUint16(rt provider.RecordType) uint16 {
	switch rt {
	case provider.RecordTypeA:
		return dns.TypeA
	case provider.RecordTypeAAAA:
		return dns.TypeAAAA
	case provider.RecordTypeCNAME:
		return dns.TypeCNAME
	case provider.RecordTypeTXT:
		return dns.TypeTXT
	case provider.RecordTypeSRV:
		return dns.TypeSRV
	case provider.RecordTypeMX:
		return dns.TypeMX
	default:
		return dns.TypeA
	}
}

// uint16ToRecordType converts dns.Type to provider.RecordType.
func uint16ToRecordType(t uint16) (provider.RecordType, bool) {
	switch t {
	case dns.TypeA:
		return provider.RecordTypeA, true
	case dns.TypeAAAA:
		return provider.RecordTypeAAAA, true
	case dns.TypeCNAME:
		return provider.RecordTypeCNAME, true
	case dns.TypeTXT:
		return provider.RecordTypeTXT, true
	case dns.TypeSRV:
		return provider.RecordTypeSRV, true
	case dns.TypeMX:
		return provider.RecordTypeMX, true
	default:
		return "", false
	}
}

// fromRFC2136Record converts a dnsupdate.Record to provider.RecordConfig.
// Returns an error for unsupported record types.
func (p *Provider) fromRFC2136Record(r dnsupdate.Record) (provider.RecordConfig, error) {
	recordType, ok := uint16ToRecordType(r.Type)
	if !ok {
		return provider.RecordConfig{}, fmt.Errorf("unsupported record type: %s", r.TypeString())
	}

	name := strings.TrimSuffix(r.Name, ".")
	content := strings.TrimSuffix(r.RData, ".")

	cfg := provider.RecordConfig{
		Type:    recordType,
		Name:    name,
		Content: content,
		TTL:     int(r.TTL),
	}

	switch recordType {
	case provider.RecordTypeSRV:
		priority, weight, port := r.Priority, r.Weight, r.Port
		cfg.Priority = &priority
		cfg.Weight = &weight
		cfg.Port = &port
	case provider.RecordTypeMX:
		priority := r.Priority
		cfg.Priority = &priority
	}

	return cfg, nil
}

// ensureFQDN ensures a hostname is fully qualified with a trailing dot.
// If the hostname doesn't include the zone, it is appended.
func (p *Provider) ensureFQDN(hostname string) string {
	if strings.HasSuffix(hostname, ".") {
		return hostname
	}

	zoneWithoutDot := strings.TrimSuffix(p.zone, ".")
	if strings.HasSuffix(hostname, zoneWithoutDot) {
		return hostname + "."
	}

	return hostname + "." + zoneWithoutDot + "."
}

// encodeID builds an opaque, reversible record identifier. RFC 2136 has no
// native per-record ID; the composite string carries enough of the RR to
// reconstruct it for an exact-match delete or update.
func encodeID(cfg provider.RecordConfig) string {
	if cfg.Type == provider.RecordTypeSRV {
		var priority, weight, port uint16
		if cfg.Priority != nil {
			priority = *cfg.Priority
		}
		if cfg.Weight != nil {
			weight = *cfg.Weight
		}
		if cfg.Port != nil {
			port = *cfg.Port
		}
		return fmt.Sprintf("%s|%s|%d|%d|%d|%s", cfg.Name, cfg.Type, priority, weight, port, cfg.Content)
	}
	if cfg.Type == provider.RecordTypeMX {
		var priority uint16
		if cfg.Priority != nil {
			priority = *cfg.Priority
		}
		return fmt.Sprintf("%s|%s|%d|%s", cfg.Name, cfg.Type, priority, cfg.Content)
	}
	return fmt.Sprintf("%s|%s|%s", cfg.Name, cfg.Type, cfg.Content)
}

// decodeID reverses encodeID.
func decodeID(id string) (provider.RecordConfig, error) {
	parts := strings.Split(id, "|")

	switch len(parts) {
	case 3:
		return provider.RecordConfig{
			Name:    parts[0],
			Type:    provider.RecordType(parts[1]),
			Content: parts[2],
		}, nil

	case 4:
		priority, err := parseUint16(parts[2])
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("invalid priority in id %q: %w", id, err)
		}
		return provider.RecordConfig{
			Name:     parts[0],
			Type:     provider.RecordType(parts[1]),
			Content:  parts[3],
			Priority: &priority,
		}, nil

	case 6:
		priority, err := parseUint16(parts[2])
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("invalid priority in id %q: %w", id, err)
		}
		weight, err := parseUint16(parts[3])
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("invalid weight in id %q: %w", id, err)
		}
		port, err := parseUint16(parts[4])
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("invalid port in id %q: %w", id, err)
		}
		return provider.RecordConfig{
			Name:     parts[0],
			Type:     provider.RecordType(parts[1]),
			Content:  parts[5],
			Priority: &priority,
			Weight:   &weight,
			Port:     &port,
		}, nil

	default:
		return provider.RecordConfig{}, fmt.Errorf("malformed record id: %q", id)
	}
}

func parseUint16(s string) (uint16, error) {
	var v uint16
	_, err := fmt.Sscanf(s, "%d", &v)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// Verify interface compliance at compile time.
var _ provider.Provider = (*Provider)(nil)
