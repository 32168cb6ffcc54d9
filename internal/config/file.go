// Package config handles loading and validation of dnscontroller configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig represents the YAML configuration file structure.
// This mirrors the runtime Config but uses YAML-friendly types.
type FileConfig struct {
	// Logging configuration
	Logging *FileLoggingConfig `yaml:"logging,omitempty"`

	// Reconciler settings
	Reconciler *FileReconcilerConfig `yaml:"reconciler,omitempty"`

	// Docker connection settings
	Docker *FileDockerConfig `yaml:"docker,omitempty"`

	// Router-mode discovery endpoint
	Router *FileRouterConfig `yaml:"router,omitempty"`

	// DNS providers
	Providers []FileProviderConfig `yaml:"providers,omitempty"`

	// Health and metrics server
	Server *FileServerConfig `yaml:"server,omitempty"`

	// ManagedRecords are operator-declared records enforced on every poll
	// regardless of container discovery.
	ManagedRecords []FileManagedRecord `yaml:"managed_records,omitempty"`
}

// FileManagedRecord holds one operator-declared managed record entry.
type FileManagedRecord struct {
	Hostname string `yaml:"hostname"`
	Type     string `yaml:"type"`
	Content  string `yaml:"content"`
	TTL      int    `yaml:"ttl,omitempty"`
	Proxied  *bool  `yaml:"proxied,omitempty"`
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // json, text
}

// FileReconcilerConfig holds reconciliation settings.
type FileReconcilerConfig struct {
	PollInterval       string `yaml:"poll_interval,omitempty"`       // Go duration format (e.g., "60s", "5m")
	DryRun             *bool  `yaml:"dry_run,omitempty"`             // Pointer to distinguish unset from false
	Mode               string `yaml:"mode,omitempty"`                // router or direct
	CleanupOrphans     *bool  `yaml:"cleanup_orphans,omitempty"`     // Delete records for removed workloads
	CleanupGracePeriod string `yaml:"cleanup_grace_period,omitempty"` // Delay between marking and deleting an orphan
	DefaultManage      *bool  `yaml:"default_manage,omitempty"`      // opt-in vs opt-out DNS management
	DefaultRecordType  string `yaml:"default_record_type,omitempty"` // A, AAAA, CNAME, ...
	DefaultProxied     *bool  `yaml:"default_proxied,omitempty"`
	DefaultTTL         int    `yaml:"default_ttl,omitempty"`
	LabelPrefix        string `yaml:"label_prefix,omitempty"` // generic label namespace, e.g. "dns."
	APITimeout         string `yaml:"api_timeout,omitempty"`  // bounds outbound HTTP calls
	StateDir           string `yaml:"state_dir,omitempty"`    // record tracker store directory
}

// FileDockerConfig holds Docker connection settings.
type FileDockerConfig struct {
	Host string `yaml:"host,omitempty"` // unix:///var/run/docker.sock or tcp://...
	Mode string `yaml:"mode,omitempty"` // auto, swarm, standalone
}

// FileRouterConfig holds the router-mode discovery endpoint settings.
type FileRouterConfig struct {
	APIURL   string `yaml:"api_url,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// FileProviderConfig holds configuration for a DNS provider instance.
type FileProviderConfig struct {
	Name                string            `yaml:"name"`                            // Unique instance name
	Type                string            `yaml:"type"`                            // technitium, cloudflare, pihole, etc.
	Domains             []string          `yaml:"domains,omitempty"`               // Glob patterns
	DomainsRegex        []string          `yaml:"domains_regex,omitempty"`         // Regex patterns
	ExcludeDomains      []string          `yaml:"exclude_domains,omitempty"`       // Glob exclude patterns
	ExcludeDomainsRegex []string          `yaml:"exclude_domains_regex,omitempty"` // Regex exclude patterns
	Config              map[string]string `yaml:"config,omitempty"`                // Provider-specific settings
}

// FileServerConfig holds health/metrics server settings.
type FileServerConfig struct {
	Port int `yaml:"port,omitempty"` // Port for health/metrics endpoints
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// interpolateConfigStrings recursively interpolates environment variables
// in all string fields of the config structure.
func (c *FileConfig) interpolateEnvVars() {
	if c.Logging != nil {
		c.Logging.Level = InterpolateEnvVars(c.Logging.Level)
		c.Logging.Format = InterpolateEnvVars(c.Logging.Format)
	}

	if c.Reconciler != nil {
		c.Reconciler.PollInterval = InterpolateEnvVars(c.Reconciler.PollInterval)
		c.Reconciler.Mode = InterpolateEnvVars(c.Reconciler.Mode)
		c.Reconciler.CleanupGracePeriod = InterpolateEnvVars(c.Reconciler.CleanupGracePeriod)
		c.Reconciler.DefaultRecordType = InterpolateEnvVars(c.Reconciler.DefaultRecordType)
		c.Reconciler.LabelPrefix = InterpolateEnvVars(c.Reconciler.LabelPrefix)
		c.Reconciler.APITimeout = InterpolateEnvVars(c.Reconciler.APITimeout)
		c.Reconciler.StateDir = InterpolateEnvVars(c.Reconciler.StateDir)
	}

	if c.Docker != nil {
		c.Docker.Host = InterpolateEnvVars(c.Docker.Host)
		c.Docker.Mode = InterpolateEnvVars(c.Docker.Mode)
	}

	if c.Router != nil {
		c.Router.APIURL = InterpolateEnvVars(c.Router.APIURL)
		c.Router.Username = InterpolateEnvVars(c.Router.Username)
		c.Router.Password = InterpolateEnvVars(c.Router.Password)
	}

	for i := range c.Providers {
		p := &c.Providers[i]
		p.Name = InterpolateEnvVars(p.Name)
		p.Type = InterpolateEnvVars(p.Type)
		for j := range p.Domains {
			p.Domains[j] = InterpolateEnvVars(p.Domains[j])
		}
		for j := range p.DomainsRegex {
			p.DomainsRegex[j] = InterpolateEnvVars(p.DomainsRegex[j])
		}
		for j := range p.ExcludeDomains {
			p.ExcludeDomains[j] = InterpolateEnvVars(p.ExcludeDomains[j])
		}
		for j := range p.ExcludeDomainsRegex {
			p.ExcludeDomainsRegex[j] = InterpolateEnvVars(p.ExcludeDomainsRegex[j])
		}
		for k, v := range p.Config {
			p.Config[k] = InterpolateEnvVars(v)
		}
	}
}

// LoadFile reads and parses a YAML configuration file.
// Environment variables in ${VAR} format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}

	// Interpolate environment variables in all string fields
	cfg.interpolateEnvVars()

	return &cfg, nil
}

// ToGlobalConfig converts file config to GlobalConfig, applying defaults.
// Values from file take precedence over defaults; env vars override later.
func (c *FileConfig) ToGlobalConfig() *GlobalConfig {
	cfg := &GlobalConfig{
		LogLevel:           DefaultLogLevel,
		LogFormat:          DefaultLogFormat,
		DryRun:             DefaultDryRun,
		CleanupOrphans:     DefaultCleanupOrphans,
		DefaultTTL:         DefaultTTL,
		PollInterval:       DefaultPollInterval,
		HealthPort:         DefaultHealthPort,
		DockerHost:         DefaultDockerHost,
		DockerMode:         DefaultDockerMode,
		OperationMode:      DefaultOperationMode,
		DefaultManage:      DefaultManage,
		DefaultRecordType:  DefaultRecordType,
		DefaultProxied:     DefaultProxied,
		CleanupGracePeriod: DefaultCleanupGracePeriod,
		GenericLabelPrefix: DefaultGenericLabelPrefix,
		APITimeout:         DefaultAPITimeout,
		StateDir:           DefaultStateDir,
	}

	if c.Logging != nil {
		if c.Logging.Level != "" {
			cfg.LogLevel = strings.ToLower(c.Logging.Level)
		}
		if c.Logging.Format != "" {
			cfg.LogFormat = strings.ToLower(c.Logging.Format)
		}
	}

	if c.Reconciler != nil {
		r := c.Reconciler
		if r.DryRun != nil {
			cfg.DryRun = *r.DryRun
		}
		if r.Mode != "" {
			cfg.OperationMode = strings.ToLower(r.Mode)
		}
		if r.CleanupOrphans != nil {
			cfg.CleanupOrphans = *r.CleanupOrphans
		}
		if r.DefaultManage != nil {
			cfg.DefaultManage = *r.DefaultManage
		}
		if r.DefaultRecordType != "" {
			cfg.DefaultRecordType = strings.ToUpper(r.DefaultRecordType)
		}
		if r.DefaultProxied != nil {
			cfg.DefaultProxied = *r.DefaultProxied
		}
		if r.DefaultTTL > 0 {
			cfg.DefaultTTL = r.DefaultTTL
		}
		if r.LabelPrefix != "" {
			cfg.GenericLabelPrefix = r.LabelPrefix
		}
		if r.PollInterval != "" {
			if interval, err := time.ParseDuration(r.PollInterval); err == nil && interval >= time.Second {
				cfg.PollInterval = interval
			}
		}
		if r.CleanupGracePeriod != "" {
			if grace, err := time.ParseDuration(r.CleanupGracePeriod); err == nil && grace >= 0 {
				cfg.CleanupGracePeriod = grace
			}
		}
		if r.APITimeout != "" {
			if timeout, err := time.ParseDuration(r.APITimeout); err == nil && timeout > 0 {
				cfg.APITimeout = timeout
			}
		}
		if r.StateDir != "" {
			cfg.StateDir = r.StateDir
		}
	}

	if c.Docker != nil {
		if c.Docker.Host != "" {
			cfg.DockerHost = c.Docker.Host
		}
		if c.Docker.Mode != "" {
			cfg.DockerMode = strings.ToLower(c.Docker.Mode)
		}
	}

	if c.Router != nil {
		if c.Router.APIURL != "" {
			cfg.RouterAPIURL = c.Router.APIURL
		}
		if c.Router.Username != "" {
			cfg.RouterAPIUsername = c.Router.Username
		}
		if c.Router.Password != "" {
			cfg.RouterAPIPassword = c.Router.Password
		}
	}

	if c.Server != nil {
		if c.Server.Port > 0 && c.Server.Port <= 65535 {
			cfg.HealthPort = c.Server.Port
		}
	}

	return cfg
}

// GetConfigFilePath returns the config file path from env var or flag.
// Returns empty string if no config file is specified.
func GetConfigFilePath() string {
	// Check command-line flag first (would be set before this is called)
	// For now, just check environment variable
	return os.Getenv("DNSCONTROLLER_CONFIG")
}
