// Package webhook implements the dnscontroller provider interface for webhook-based DNS integrations.
package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// Provider implements provider.Provider for webhook-based DNS.
type Provider struct {
	name       string
	client     *Client
	httpClient *http.Client // Custom HTTP client (optional)
	logger     *slog.Logger
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
func WithProviderHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// New creates a new webhook provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:   name,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	clientOpts := []ClientOption{
		WithLogger(p.logger),
		WithRetries(config.Retries),
		WithRetryDelay(config.RetryDelay),
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, WithHTTPClient(p.httpClient))
	}
	p.client = NewClient(
		config.URL,
		config.Timeout,
		config.AuthHeader,
		config.AuthToken,
		clientOpts...,
	)

	return p, nil
}

// NewFromMap creates a new webhook provider from a configuration map, as
// supplied by the provider registry.
func NewFromMap(name string, configMap map[string]string, opts ...ProviderOption) (*Provider, error) {
	cfg, err := LoadConfigFromMap(name, configMap)
	if err != nil {
		return nil, err
	}

	return New(name, cfg, opts...)
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns "webhook".
func (p *Provider) Type() string {
	return "webhook"
}

// Capabilities returns the provider's feature support. The wire format only
// carries fields for A, AAAA, CNAME, TXT and SRV, so that is what gets
// advertised regardless of what the remote endpoint can actually do.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		Proxyable: false,
		SupportedRecordTypes: []provider.RecordType{
			provider.RecordTypeA,
			provider.RecordTypeAAAA,
			provider.RecordTypeCNAME,
			provider.RecordTypeTXT,
			provider.RecordTypeSRV,
		},
	}
}

// Init verifies connectivity to the webhook endpoint.
func (p *Provider) Init(ctx context.Context) error {
	return p.Ping(ctx)
}

// Ping checks connectivity to the webhook endpoint.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// List returns all managed records from the webhook.
func (p *Provider) List(ctx context.Context) ([]provider.Record, error) {
	webhookRecords, err := p.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	var records []provider.Record
	for _, r := range webhookRecords {
		recordType, ok := webhookTypeToRecordType(r.Type)
		if !ok {
			p.logger.Debug("skipping unsupported record type from webhook",
				slog.String("hostname", r.Hostname),
				slog.String("type", r.Type),
			)
			continue
		}

		cfg := provider.RecordConfig{
			Type:    recordType,
			Name:    r.Hostname,
			Content: r.Value,
			TTL:     r.TTL,
		}

		if recordType == provider.RecordTypeSRV && r.SRV != nil {
			priority, weight, port := r.SRV.Priority, r.SRV.Weight, r.SRV.Port
			cfg.Priority = &priority
			cfg.Weight = &weight
			cfg.Port = &port
		}

		records = append(records, provider.Record{
			RecordConfig: cfg,
			ID:           encodeID(cfg),
		})
	}

	p.logger.Debug("listed records",
		slog.String("provider", p.name),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// Create adds a new DNS record via the webhook.
func (p *Provider) Create(ctx context.Context, cfg provider.RecordConfig) (provider.Record, error) {
	if err := cfg.Validate(); err != nil {
		return provider.Record{}, fmt.Errorf("invalid record: %w", err)
	}

	var err error
	if cfg.Type == provider.RecordTypeSRV {
		if cfg.Priority == nil || cfg.Weight == nil || cfg.Port == nil {
			return provider.Record{}, fmt.Errorf("creating SRV record: priority, weight, and port are required")
		}
		err = p.client.CreateSRV(ctx, cfg.Name, *cfg.Priority, *cfg.Weight, *cfg.Port, cfg.Content, cfg.TTL)
	} else {
		err = p.client.Create(ctx, cfg.Name, string(cfg.Type), cfg.Content, cfg.TTL)
	}
	if err != nil {
		return provider.Record{}, fmt.Errorf("creating %s record: %w", cfg.Type, err)
	}

	p.logger.Info("created record",
		slog.String("provider", p.name),
		slog.String("hostname", cfg.Name),
		slog.String("type", string(cfg.Type)),
		slog.String("content", cfg.Content),
		slog.Int("ttl", cfg.TTL),
	)

	return provider.Record{RecordConfig: cfg, ID: encodeID(cfg)}, nil
}

// Delete removes a DNS record via the webhook.
func (p *Provider) Delete(ctx context.Context, id string) error {
	cfg, err := decodeID(id)
	if err != nil {
		return fmt.Errorf("decoding record id: %w", err)
	}

	if err := p.client.Delete(ctx, cfg.Name, string(cfg.Type)); err != nil {
		return fmt.Errorf("deleting %s record: %w", cfg.Type, err)
	}

	p.logger.Info("deleted record",
		slog.String("provider", p.name),
		slog.String("hostname", cfg.Name),
		slog.String("type", string(cfg.Type)),
	)

	return nil
}

// Update modifies an existing DNS record via the webhook. The webhook wire
// protocol only defines ping/list/create/delete, with no dedicated update
// call, so this is implemented as delete-then-create, the same strategy
// used for other providers whose backend has no targeted update primitive.
func (p *Provider) Update(ctx context.Context, id string, cfg provider.RecordConfig) (provider.Record, error) {
	if err := cfg.Validate(); err != nil {
		return provider.Record{}, fmt.Errorf("invalid record: %w", err)
	}

	if err := p.Delete(ctx, id); err != nil {
		return provider.Record{}, fmt.Errorf("deleting existing record: %w", err)
	}

	rec, err := p.Create(ctx, cfg)
	if err != nil {
		return provider.Record{}, fmt.Errorf("creating replacement record: %w", err)
	}

	p.logger.Info("updated record",
		slog.String("provider", p.name),
		slog.String("hostname", cfg.Name),
		slog.String("type", string(cfg.Type)),
	)

	return rec, nil
}

// webhookTypeToRecordType maps the webhook wire format's type string to a
// provider.RecordType, reporting whether it is supported.
func webhookTypeToRecordType(t string) (provider.RecordType, bool) {
	switch t {
	case "A":
		return provider.RecordTypeA, true
	case "AAAA":
		return provider.RecordTypeAAAA, true
	case "CNAME":
		return provider.RecordTypeCNAME, true
	case "TXT":
		return provider.RecordTypeTXT, true
	case "SRV":
		return provider.RecordTypeSRV, true
	default:
		return "", false
	}
}

// encodeID builds an opaque, reversible record identifier. The webhook's
// own /delete endpoint is keyed by hostname and type, not by the optional
// id field RecordResponse carries, so the identifier only needs to round-trip
// enough of the record to drive Delete and Update.
func encodeID(cfg provider.RecordConfig) string {
	return fmt.Sprintf("%s|%s|%s", cfg.Name, cfg.Type, cfg.Content)
}

// decodeID reverses encodeID.
func decodeID(id string) (provider.RecordConfig, error) {
	parts := strings.SplitN(id, "|", 3)
	if len(parts) != 3 {
		return provider.RecordConfig{}, fmt.Errorf("malformed record id: %q", id)
	}
	return provider.RecordConfig{
		Name:    parts[0],
		Type:    provider.RecordType(parts[1]),
		Content: parts[2],
	}, nil
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
