// Package config handles loading and validation of dnscontroller configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// loadFromFile loads configuration from a YAML file and converts it to runtime types.
// Returns nil values and no errors if no file is configured; a file that
// cannot be read or parsed is reported in the returned errors.
func loadFromFile(path string) (*GlobalConfig, []*ProviderInstanceConfig, []ManagedRecord, []string) {
	if path == "" {
		return nil, nil, nil, nil
	}

	fileCfg, err := LoadFile(path)
	if err != nil {
		return nil, nil, nil, []string{"config file: " + err.Error()}
	}

	slog.Info("loaded configuration from file", slog.String("path", path))

	var errs []string

	// Convert to runtime types
	global := fileCfg.ToGlobalConfig()

	// Convert providers
	var providers []*ProviderInstanceConfig
	for _, fp := range fileCfg.Providers {
		p, pErrs := convertFileProvider(fp)
		providers = append(providers, p)
		errs = append(errs, pErrs...)
	}

	// Convert managed records
	var managedRecords []ManagedRecord
	for _, fr := range fileCfg.ManagedRecords {
		mr, mrErrs := convertFileManagedRecord(fr)
		managedRecords = append(managedRecords, mr)
		errs = append(errs, mrErrs...)
	}

	return global, providers, managedRecords, errs
}

// convertFileManagedRecord converts a FileManagedRecord to a ManagedRecord.
func convertFileManagedRecord(fr FileManagedRecord) (ManagedRecord, []string) {
	var errs []string
	if fr.Hostname == "" {
		errs = append(errs, "managed record: hostname is required")
	}
	if fr.Type == "" {
		errs = append(errs, fmt.Sprintf("managed record %q: type is required", fr.Hostname))
	}
	if fr.Content == "" {
		errs = append(errs, fmt.Sprintf("managed record %q: content is required", fr.Hostname))
	}
	return ManagedRecord{
		Hostname: fr.Hostname,
		Type:     strings.ToUpper(fr.Type),
		Content:  fr.Content,
		TTL:      fr.TTL,
		Proxied:  fr.Proxied,
	}, errs
}

// convertFileProvider converts a FileProviderConfig to ProviderInstanceConfig.
func convertFileProvider(fp FileProviderConfig) (*ProviderInstanceConfig, []string) {
	var errs []string

	cfg := &ProviderInstanceConfig{
		Name:                fp.Name,
		TypeName:            strings.ToLower(fp.Type),
		Domains:             fp.Domains,
		DomainsRegex:        fp.DomainsRegex,
		ExcludeDomains:      fp.ExcludeDomains,
		ExcludeDomainsRegex: fp.ExcludeDomainsRegex,
		ProviderConfig:      make(map[string]string),
	}

	// Validate name
	if cfg.Name == "" {
		errs = append(errs, "provider: name is required")
	}

	// Validate type
	if cfg.TypeName == "" {
		errs = append(errs, "provider "+cfg.Name+": type is required")
	}

	// Domains validation
	if len(fp.Domains) == 0 && len(fp.DomainsRegex) == 0 {
		errs = append(errs, "provider "+cfg.Name+": domains or domains_regex is required")
	}
	if len(fp.Domains) > 0 && len(fp.DomainsRegex) > 0 {
		errs = append(errs, "provider "+cfg.Name+": cannot set both domains and domains_regex")
	}
	if len(fp.ExcludeDomains) > 0 && len(fp.ExcludeDomainsRegex) > 0 {
		errs = append(errs, "provider "+cfg.Name+": cannot set both exclude_domains and exclude_domains_regex")
	}

	// Provider-specific config
	for k, v := range fp.Config {
		// Normalize keys to uppercase for consistency with env var loading
		cfg.ProviderConfig[strings.ToUpper(k)] = v
	}

	return cfg, errs
}

// mergeGlobalConfig merges environment variable overrides into a GlobalConfig.
// Environment variables always take precedence over file config.
func mergeGlobalConfig(base *GlobalConfig) (*GlobalConfig, []string) {
	if base == nil {
		// No file config, load everything from env vars
		return loadGlobalConfig()
	}

	var errs []string

	// Start with file values, override with env vars if set
	cfg := *base // Copy the struct

	// Override with env vars if explicitly set
	if v := getEnv("DNSCONTROLLER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
		switch cfg.LogLevel {
		case "debug", "info", "warn", "error":
			// Valid
		default:
			errs = append(errs, "DNSCONTROLLER_LOG_LEVEL: invalid value (must be debug, info, warn, or error)")
		}
	}

	if v := getEnv("DNSCONTROLLER_LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
		switch cfg.LogFormat {
		case "json", "text":
			// Valid
		default:
			errs = append(errs, "DNSCONTROLLER_LOG_FORMAT: invalid value (must be json or text)")
		}
	}

	if v := getEnv("DNSCONTROLLER_DOCKER_HOST"); v != "" {
		cfg.DockerHost = v
	}

	if v := getEnv("DNSCONTROLLER_DOCKER_MODE"); v != "" {
		cfg.DockerMode = strings.ToLower(v)
		switch cfg.DockerMode {
		case "auto", "swarm", "standalone":
			// Valid
		default:
			errs = append(errs, "DNSCONTROLLER_DOCKER_MODE: invalid value (must be auto, swarm, or standalone)")
		}
	}

	if v := getEnv("DNSCONTROLLER_OPERATION_MODE"); v != "" {
		cfg.OperationMode = strings.ToLower(v)
		switch cfg.OperationMode {
		case "router", "direct":
			// Valid
		default:
			errs = append(errs, "DNSCONTROLLER_OPERATION_MODE: invalid value (must be router or direct)")
		}
	}

	if v := getEnv("DNSCONTROLLER_DRY_RUN"); v != "" {
		cfg.DryRun = parseBool(v, cfg.DryRun)
	}

	if v := getEnv("DNSCONTROLLER_CLEANUP_ORPHANS"); v != "" {
		cfg.CleanupOrphans = parseBool(v, cfg.CleanupOrphans)
	}

	if v := getEnv("DNSCONTROLLER_DEFAULT_MANAGE"); v != "" {
		cfg.DefaultManage = parseBool(v, cfg.DefaultManage)
	}

	if v := getEnv("DNSCONTROLLER_DEFAULT_PROXIED"); v != "" {
		cfg.DefaultProxied = parseBool(v, cfg.DefaultProxied)
	}

	if v := getEnv("DNSCONTROLLER_DEFAULT_RECORD_TYPE"); v != "" {
		cfg.DefaultRecordType = strings.ToUpper(v)
	}

	if v := getEnv("DNSCONTROLLER_LABEL_PREFIX"); v != "" {
		cfg.GenericLabelPrefix = v
	}

	if v := getEnv("DNSCONTROLLER_DEFAULT_TTL"); v != "" {
		if ttl, err := parseIntEnv(v); err == nil && ttl >= 1 {
			cfg.DefaultTTL = ttl
		} else {
			errs = append(errs, "DNSCONTROLLER_DEFAULT_TTL: invalid or negative integer")
		}
	}

	if v := getEnv("DNSCONTROLLER_POLL_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil && interval >= time.Second {
			cfg.PollInterval = interval
		} else {
			errs = append(errs, "DNSCONTROLLER_POLL_INTERVAL: invalid duration")
		}
	}

	if v := getEnv("DNSCONTROLLER_CLEANUP_GRACE_PERIOD"); v != "" {
		if grace, err := time.ParseDuration(v); err == nil && grace >= 0 {
			cfg.CleanupGracePeriod = grace
		} else {
			errs = append(errs, "DNSCONTROLLER_CLEANUP_GRACE_PERIOD: invalid duration")
		}
	}

	if v := getEnv("DNSCONTROLLER_API_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil && timeout > 0 {
			cfg.APITimeout = timeout
		} else {
			errs = append(errs, "DNSCONTROLLER_API_TIMEOUT: invalid duration")
		}
	}

	if v := getEnv("DNSCONTROLLER_HEALTH_PORT"); v != "" {
		if port, err := parseIntEnv(v); err == nil && port >= 1 && port <= 65535 {
			cfg.HealthPort = port
		} else {
			errs = append(errs, "DNSCONTROLLER_HEALTH_PORT: invalid port number")
		}
	}

	if v := getEnv("DNSCONTROLLER_ROUTER_API_URL"); v != "" {
		cfg.RouterAPIURL = v
	}

	if v := getEnv("DNSCONTROLLER_ROUTER_API_USERNAME"); v != "" {
		cfg.RouterAPIUsername = v
	}

	if v := getEnvWithFileFallback("DNSCONTROLLER_ROUTER_API_", "PASSWORD"); v != "" {
		cfg.RouterAPIPassword = v
	}

	if v := getEnv("DNSCONTROLLER_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}

	return &cfg, errs
}

// parseIntEnv parses an integer from string by scanning its digits by hand.
func parseIntEnv(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			if c == '-' && n == 0 {
				continue
			}
			return 0, errInvalidInt
		}
		n = n*10 + int(c-'0')
	}
	if len(s) > 0 && s[0] == '-' {
		n = -n
	}
	return n, nil
}

var errInvalidInt = &ValidationError{Errors: []string{"invalid integer"}}
