// Package config handles loading and validation of dnscontroller configuration
// from environment variables and optional YAML configuration files.
//
// Configuration follows the patterns defined in docs/DECISIONS.md:
//   - All env vars use DNSCONTROLLER_ prefix
//   - _FILE suffix for Docker secrets (e.g., TOKEN_FILE)
//   - YAML config file via DNSCONTROLLER_CONFIG env var or --config flag
//   - Priority: env vars > config file > defaults
//   - Fail fast on any configuration error
package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Config holds the complete application configuration.
// All settings use the DNSCONTROLLER_ prefix as per DECISIONS.md.
type Config struct {
	// Global contains application-wide settings.
	Global *GlobalConfig

	// ProviderNames is the ordered list of instance names
	// from DNSCONTROLLER_INSTANCES. Order determines matching priority.
	ProviderNames []string

	// ProviderInstances contains configuration for each provider.
	// The order matches ProviderNames.
	ProviderInstances []*ProviderInstanceConfig

	// ConfigFile is the path to the config file used, if any.
	ConfigFile string

	// ManagedRecords are operator-declared records enforced on every poll
	// regardless of container discovery. Only settable via the YAML config
	// file; there is no per-record environment variable surface.
	ManagedRecords []ManagedRecord
}

// ManagedRecord is a fully-specified record the dns manager must keep
// present regardless of workload discovery.
type ManagedRecord struct {
	Hostname string
	Type     string
	Content  string
	TTL      int
	Proxied  *bool
}

// Load reads configuration from environment variables and an optional YAML file.
// Returns an error if any required configuration is missing or invalid.
//
// Configuration priority (highest to lowest):
//  1. Environment variables
//  2. Config file values (if DNSCONTROLLER_CONFIG is set)
//  3. Default values
//
// Per DECISIONS.md: Fail fast with clear error messages. Do not start
// with partial configuration.
func Load() (*Config, error) {
	var allErrors []string

	// Check for config file
	configPath := GetConfigFilePath()

	var fileGlobal *GlobalConfig
	var fileProviders []*ProviderInstanceConfig
	var fileManagedRecords []ManagedRecord

	if configPath != "" {
		// Load from file first
		var fileErrs []string
		fileGlobal, fileProviders, fileManagedRecords, fileErrs = loadFromFile(configPath)
		allErrors = append(allErrors, fileErrs...)

		// If file loading had errors, we still try to proceed with env vars
		if len(fileErrs) == 0 && fileGlobal != nil {
			slog.Debug("config file loaded, applying environment overrides")
		}
	}

	// Merge global config with env var overrides
	var global *GlobalConfig
	var globalErrs []string
	if fileGlobal != nil {
		global, globalErrs = mergeGlobalConfig(fileGlobal)
	} else {
		global, globalErrs = loadGlobalConfig()
	}
	allErrors = append(allErrors, globalErrs...)

	// Determine providers: file config + env var overrides/additions
	var providerNames []string
	var instances []*ProviderInstanceConfig

	// Check if env vars define providers (takes precedence over file)
	envProviderNames := parseInstances()
	if len(envProviderNames) > 0 {
		// Env vars define providers - use env var loading
		providerNames = envProviderNames
		for _, name := range providerNames {
			inst, instErrs := loadInstanceConfig(name)
			allErrors = append(allErrors, instErrs...)
			instances = append(instances, inst)
		}
	} else if len(fileProviders) > 0 {
		// Use file providers, with any per-instance env var overrides applied
		for _, fp := range fileProviders {
			mergeProviderEnvOverrides(fp)
			providerNames = append(providerNames, fp.Name)
			instances = append(instances, fp)
		}
	} else {
		allErrors = append(allErrors, "no providers configured: set DNSCONTROLLER_INSTANCES or configure providers in config file")
	}

	cfg := &Config{
		Global:            global,
		ProviderNames:     providerNames,
		ProviderInstances: instances,
		ConfigFile:        configPath,
		ManagedRecords:    fileManagedRecords,
	}

	// Run cross-field validation
	allErrors = append(allErrors, validateConfig(cfg)...)

	if len(allErrors) > 0 {
		return nil, &ValidationError{Errors: allErrors}
	}

	return cfg, nil
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	return c.Global.LogLevel
}

// LogFormat returns the configured log format.
func (c *Config) LogFormat() string {
	return c.Global.LogFormat
}

// DryRun returns whether dry-run mode is enabled.
func (c *Config) DryRun() bool {
	return c.Global.DryRun
}

// CleanupOrphans returns whether orphan cleanup is enabled.
func (c *Config) CleanupOrphans() bool {
	return c.Global.CleanupOrphans
}

// CleanupGracePeriod returns the delay between marking and deleting an orphan.
func (c *Config) CleanupGracePeriod() time.Duration {
	return c.Global.CleanupGracePeriod
}

// PollInterval returns the monitor poll cadence.
func (c *Config) PollInterval() time.Duration {
	return c.Global.PollInterval
}

// OperationMode returns the active discovery mode (router or direct).
func (c *Config) OperationMode() string {
	return c.Global.OperationMode
}

// HealthPort returns the health server port.
func (c *Config) HealthPort() int {
	return c.Global.HealthPort
}

// DockerHost returns the Docker socket/host path.
func (c *Config) DockerHost() string {
	return c.Global.DockerHost
}

// DockerMode returns the Docker mode (auto/swarm/standalone).
func (c *Config) DockerMode() string {
	return c.Global.DockerMode
}

// StateDir returns the directory the record tracker persists its store in.
func (c *Config) StateDir() string {
	return c.Global.StateDir
}

// GetProviderInstance returns the configuration for a specific provider instance.
func (c *Config) GetProviderInstance(name string) (*ProviderInstanceConfig, bool) {
	for _, inst := range c.ProviderInstances {
		if inst.Name == name {
			return inst, true
		}
	}
	return nil, false
}

// ProviderZones builds the provider-name-to-zone map dnsmanager.Config needs
// to reconstruct a record's FQDN from a provider's relative record name.
func (c *Config) ProviderZones() map[string]string {
	zones := make(map[string]string, len(c.ProviderInstances))
	for _, inst := range c.ProviderInstances {
		if z := inst.Zone(); z != "" {
			zones[inst.Name] = z
		}
	}
	return zones
}

// String returns a summary of the configuration (without secrets).
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{LogLevel=%s, DryRun=%v, OperationMode=%s, PollInterval=%s, Providers=%v}",
		c.Global.LogLevel,
		c.Global.DryRun,
		c.Global.OperationMode,
		c.Global.PollInterval,
		c.ProviderNames,
	)
}
