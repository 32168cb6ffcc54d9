package dnsmasq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
	"github.com/maxfield-allison/dnscontroller/pkg/sshutil"
)

// Provider implements provider.Provider for dnsmasq DNS server.
type Provider struct {
	name          string
	zone          string
	ttl           int
	reloadOnWrite bool
	client        *Client
	logger        *slog.Logger

	// sshClient and sftpFS are non-nil when the instance manages a remote
	// dnsmasq install over SSH/SFTP instead of the local filesystem.
	sshClient *sshutil.Client
	sftpFS    *sshutil.SFTPFileSystem
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

// WithReloadOnWrite enables automatic dnsmasq reload after writes.
// Default is true.
func WithReloadOnWrite(reload bool) ProviderOption {
	return func(p *Provider) {
		p.reloadOnWrite = reload
	}
}

// WithClient sets a custom client (for testing).
func WithClient(client *Client) ProviderOption {
	return func(p *Provider) {
		p.client = client
	}
}

// New creates a new dnsmasq provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:          name,
		zone:          config.Zone,
		ttl:           config.TTL,
		reloadOnWrite: true, // Default: reload after writes
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	// Create client if not provided via options (testing)
	if p.client == nil {
		clientOpts := []ClientOption{WithLogger(p.logger)}

		if config.IsSSHEnabled() {
			sshClient, err := newSSHClient(config, p.logger)
			if err != nil {
				return nil, fmt.Errorf("configuring SSH transport: %w", err)
			}
			p.sshClient = sshClient
			p.sftpFS = sshutil.NewSFTPFileSystem(sshClient)
			clientOpts = append(clientOpts,
				WithFileSystem(p.sftpFS),
				WithCommandRunner(sshutil.NewSSHCommandRunner(sshClient)),
			)
		}

		p.client = NewClient(
			config.ConfigDir,
			config.ConfigFile,
			config.ReloadCommand,
			config.Zone,
			clientOpts...,
		)
	}

	return p, nil
}

// newSSHClient builds an sshutil.Client from a dnsmasq Config's SSH fields,
// for managing a remote dnsmasq install instead of the local filesystem.
func newSSHClient(config *Config, logger *slog.Logger) (*sshutil.Client, error) {
	sshConfig := &sshutil.Config{
		Host:     config.SSHHost,
		Port:     config.SSHPort,
		User:     config.SSHUser,
		KeyFile:  config.SSHKeyFile,
		Password: config.SSHPassword,
	}

	return sshutil.NewClient(sshConfig, sshutil.WithLogger(logger))
}

// NewFromMap creates a new dnsmasq provider from a configuration map.
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

// Type returns "dnsmasq".
func (p *Provider) Type() string {
	return "dnsmasq"
}

// Capabilities returns the provider's feature support. dnsmasq's
// address=/cname= config format has no proxy concept and no SRV or TXT
// directive this provider writes, so it supports only A/AAAA/CNAME.
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

// Init establishes the SSH/SFTP connection for remote instances, then
// checks connectivity to the dnsmasq configuration.
func (p *Provider) Init(ctx context.Context) error {
	if p.sshClient != nil {
		if err := p.sshClient.Connect(ctx); err != nil {
			return fmt.Errorf("connecting to SSH host: %w", err)
		}
		if err := p.sftpFS.Connect(ctx); err != nil {
			return fmt.Errorf("opening SFTP session: %w", err)
		}
	}

	return p.client.Ping(ctx)
}

// Ping checks connectivity to the dnsmasq configuration.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// List returns all managed records from the dnsmasq config file.
func (p *Provider) List(ctx context.Context) ([]provider.Record, error) {
	dnsmasqRecords, err := p.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	var records []provider.Record
	for _, r := range dnsmasqRecords {
		cfg := provider.RecordConfig{
			Type:    r.Type,
			Name:    r.Hostname,
			Content: r.Target,
			TTL:     p.ttl, // dnsmasq doesn't use TTL, but we track it for consistency
		}
		records = append(records, provider.Record{
			RecordConfig: cfg,
			ID:           encodeID(cfg),
			Zone:         p.zone,
		})
	}

	p.logger.Debug("listed records",
		slog.String("provider", p.name),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// Create adds a new DNS record to the dnsmasq config.
func (p *Provider) Create(ctx context.Context, cfg provider.RecordConfig) (provider.Record, error) {
	if err := p.validateType(cfg.Type); err != nil {
		return provider.Record{}, err
	}

	if err := p.write(ctx, cfg); err != nil {
		return provider.Record{}, fmt.Errorf("creating %s record: %w", cfg.Type, err)
	}

	p.logger.Info("created record",
		slog.String("provider", p.name),
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
		slog.String("content", cfg.Content),
	)

	return provider.Record{RecordConfig: cfg, ID: encodeID(cfg), Zone: p.zone}, nil
}

// Delete removes a DNS record from the dnsmasq config.
func (p *Provider) Delete(ctx context.Context, id string) error {
	cfg, err := decodeID(id)
	if err != nil {
		return fmt.Errorf("decoding record id: %w", err)
	}

	record := dnsmasqRecord{Hostname: cfg.Name, Type: cfg.Type, Target: cfg.Content}
	if err := p.client.Delete(ctx, record); err != nil {
		return fmt.Errorf("deleting %s record: %w", cfg.Type, err)
	}

	if p.reloadOnWrite {
		if err := p.client.Reload(ctx); err != nil {
			p.logger.Warn("failed to reload dnsmasq", slog.String("error", err.Error()))
		}
	}

	p.logger.Info("deleted record",
		slog.String("provider", p.name),
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
	)

	return nil
}

// Update replaces a DNS record. dnsmasq's flat config file has no
// in-place update, so this deletes the old line and appends the new one.
func (p *Provider) Update(ctx context.Context, id string, cfg provider.RecordConfig) (provider.Record, error) {
	existing, err := decodeID(id)
	if err != nil {
		return provider.Record{}, fmt.Errorf("decoding record id: %w", err)
	}

	if err := p.validateType(cfg.Type); err != nil {
		return provider.Record{}, err
	}

	oldRecord := dnsmasqRecord{Hostname: existing.Name, Type: existing.Type, Target: existing.Content}
	if err := p.client.Delete(ctx, oldRecord); err != nil {
		return provider.Record{}, fmt.Errorf("removing previous record: %w", err)
	}

	if err := p.write(ctx, cfg); err != nil {
		return provider.Record{}, fmt.Errorf("writing updated record: %w", err)
	}

	p.logger.Info("updated record",
		slog.String("provider", p.name),
		slog.String("name", cfg.Name),
		slog.String("type", string(cfg.Type)),
	)

	return provider.Record{RecordConfig: cfg, ID: encodeID(cfg), Zone: p.zone}, nil
}

func (p *Provider) validateType(rt provider.RecordType) error {
	switch rt {
	case provider.RecordTypeA, provider.RecordTypeAAAA, provider.RecordTypeCNAME:
		return nil
	default:
		return fmt.Errorf("unsupported record type: %s", rt)
	}
}

func (p *Provider) write(ctx context.Context, cfg provider.RecordConfig) error {
	record := dnsmasqRecord{Hostname: cfg.Name, Type: cfg.Type, Target: cfg.Content}
	if err := p.client.Create(ctx, record); err != nil {
		return err
	}

	if p.reloadOnWrite {
		if err := p.client.Reload(ctx); err != nil {
			p.logger.Warn("failed to reload dnsmasq", slog.String("error", err.Error()))
		}
	}

	return nil
}

// encodeID builds an opaque, reversible record identifier. dnsmasq's
// config file format carries no native record ID.
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

// Factory returns a provider.Factory function for use with the provider registry.
func Factory() provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		return NewFromMap(name, config)
	}
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)
