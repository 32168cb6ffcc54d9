package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// ProviderInstanceConfig holds configuration for a single provider instance.
// This is created during config loading and passed to the provider registry.
// Per-hostname record shape (type, content, TTL, proxied) is no longer a
// property of the instance: it comes from container labels at reconcile
// time, falling back to the global defaults in dnsmanager.Config.
type ProviderInstanceConfig struct {
	// Name is the user-provided instance name (e.g., "internal-dns").
	Name string

	// TypeName is the provider type (e.g., "technitium", "cloudflare").
	TypeName string

	// Domain matching patterns
	Domains             []string // Glob patterns (default)
	DomainsRegex        []string // Regex patterns (opt-in)
	ExcludeDomains      []string // Glob exclude patterns
	ExcludeDomainsRegex []string // Regex exclude patterns

	// ProviderConfig holds provider-specific settings.
	// Keys are setting names (e.g., "URL", "TOKEN", "ZONE").
	ProviderConfig map[string]string
}

// Zone returns the zone this instance manages, read from its ZONE
// provider-config entry. When ZONE is unset and Domains holds exactly one
// pattern with no glob characters (*, ?, [), that pattern is returned,
// since it is itself a zone name; otherwise Zone returns "".
func (c *ProviderInstanceConfig) Zone() string {
	if z := c.ProviderConfig["ZONE"]; z != "" {
		return z
	}
	if len(c.Domains) == 1 && !strings.ContainsAny(c.Domains[0], "*?[") {
		return c.Domains[0]
	}
	return ""
}

// ToProviderConfig converts this config to the provider package's config type.
func (c *ProviderInstanceConfig) ToProviderConfig() provider.ProviderInstanceConfig {
	return provider.ProviderInstanceConfig{
		Name:                c.Name,
		TypeName:            c.TypeName,
		Domains:             c.Domains,
		DomainsRegex:        c.DomainsRegex,
		ExcludeDomains:      c.ExcludeDomains,
		ExcludeDomainsRegex: c.ExcludeDomainsRegex,
		ProviderConfig:      c.ProviderConfig,
	}
}

// parseInstances parses the DNSCONTROLLER_INSTANCES environment variable.
// For backward compatibility, DNSCONTROLLER_PROVIDERS is also accepted but deprecated.
// Returns the list of instance names in order.
func parseInstances() []string {
	// Prefer DNSCONTROLLER_INSTANCES, fall back to deprecated DNSCONTROLLER_PROVIDERS
	instancesStr := getEnv("DNSCONTROLLER_INSTANCES")
	if instancesStr == "" {
		instancesStr = getEnv("DNSCONTROLLER_PROVIDERS")
		if instancesStr != "" {
			slog.Warn("DNSCONTROLLER_PROVIDERS is deprecated, use DNSCONTROLLER_INSTANCES instead")
		}
	}
	if instancesStr == "" {
		return nil
	}

	var instances []string
	for _, p := range strings.Split(instancesStr, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			instances = append(instances, p)
		}
	}
	return instances
}

// loadInstanceConfig loads configuration for a single provider instance.
// It reads all DNSCONTROLLER_{INSTANCE_NAME}_* environment variables.
func loadInstanceConfig(instanceName string) (*ProviderInstanceConfig, []string) {
	var errs []string
	prefix := envPrefix(instanceName)

	cfg := &ProviderInstanceConfig{
		Name:           instanceName,
		ProviderConfig: make(map[string]string),
	}

	// TYPE is required
	cfg.TypeName = strings.ToLower(getEnv(prefix + "TYPE"))
	if cfg.TypeName == "" {
		errs = append(errs, fmt.Sprintf("%sTYPE: required but not set", prefix))
	}

	// Domain patterns - either DOMAINS or DOMAINS_REGEX, not both
	domainsStr := getEnv(prefix + "DOMAINS")
	domainsRegexStr := getEnv(prefix + "DOMAINS_REGEX")

	if domainsStr != "" && domainsRegexStr != "" {
		errs = append(errs, fmt.Sprintf("%s: cannot set both DOMAINS and DOMAINS_REGEX", prefix[:len(prefix)-1]))
	} else if domainsStr == "" && domainsRegexStr == "" {
		errs = append(errs, fmt.Sprintf("%sDOMAINS: required but not set", prefix))
	} else if domainsStr != "" {
		cfg.Domains = splitPatterns(domainsStr)
	} else {
		cfg.DomainsRegex = splitPatterns(domainsRegexStr)
	}

	// Exclude patterns - either EXCLUDE_DOMAINS or EXCLUDE_DOMAINS_REGEX
	excludeDomainsStr := getEnv(prefix + "EXCLUDE_DOMAINS")
	excludeDomainsRegexStr := getEnv(prefix + "EXCLUDE_DOMAINS_REGEX")

	if excludeDomainsStr != "" && excludeDomainsRegexStr != "" {
		errs = append(errs, fmt.Sprintf("%s: cannot set both EXCLUDE_DOMAINS and EXCLUDE_DOMAINS_REGEX", prefix[:len(prefix)-1]))
	} else if excludeDomainsStr != "" {
		cfg.ExcludeDomains = splitPatterns(excludeDomainsStr)
	} else if excludeDomainsRegexStr != "" {
		cfg.ExcludeDomainsRegex = splitPatterns(excludeDomainsRegexStr)
	}

	// Load provider-specific config using shared field definitions
	// Secrets support the _FILE suffix for Docker secrets
	for _, field := range providerConfigFields {
		var value string
		if field.isSecret {
			value = getEnvWithFileFallback(prefix, field.name)
		} else {
			value = getEnv(prefix + field.name)
		}
		if value != "" {
			cfg.ProviderConfig[field.name] = value
		}
	}

	return cfg, errs
}

// providerConfigFields defines all provider-specific configuration fields.
// This is shared between env var loading and file config merging.
// Fields marked as secrets support the _FILE suffix pattern for Docker secrets.
var providerConfigFields = []struct {
	name     string
	isSecret bool
}{
	{"URL", false},
	{"TOKEN", true},
	{"ZONE", false},
	{"ZONE_ID", false},
	{"API_KEY", true},
	{"API_EMAIL", false},
	{"PROXIED", false},              // Cloudflare-specific
	{"AUTH_HEADER", false},          // Webhook-specific
	{"AUTH_TOKEN", true},            // Webhook-specific
	{"TIMEOUT", false},              // Webhook-specific
	{"RETRIES", false},              // Webhook-specific
	{"RETRY_DELAY", false},          // Webhook-specific
	{"HOST_FILE", false},            // dnsmasq-specific
	{"BACKUP", false},               // dnsmasq-specific
	{"INCLUDE_MARKER", false},       // dnsmasq-specific
	{"RELOAD_COMMAND", false},       // dnsmasq-specific
	{"MODE", false},                 // Pi-hole specific (api/file)
	{"PASSWORD", true},              // Pi-hole specific
	{"INSECURE_SKIP_VERIFY", false}, // TLS certificate verification skip
}

// mergeProviderEnvOverrides applies environment variable overrides to a
// file-based provider configuration. This allows users to:
//  1. Define most config in YAML for readability
//  2. Override specific values (especially secrets) via env vars
//  3. Use Docker secrets with the _FILE suffix pattern
//
// Environment variables use the pattern: DNSCONTROLLER_{PROVIDER_NAME}_{FIELD}
// For secrets, DNSCONTROLLER_{PROVIDER_NAME}_{FIELD}_FILE is also checked.
//
// Any env var that is set will override the corresponding YAML value.
func mergeProviderEnvOverrides(cfg *ProviderInstanceConfig) {
	prefix := envPrefix(cfg.Name)

	// Ensure ProviderConfig map exists
	if cfg.ProviderConfig == nil {
		cfg.ProviderConfig = make(map[string]string)
	}

	// Check for provider-specific config field overrides
	for _, field := range providerConfigFields {
		var value string
		if field.isSecret {
			value = getEnvWithFileFallback(prefix, field.name)
		} else {
			value = getEnv(prefix + field.name)
		}
		// Only override if env var is explicitly set
		if value != "" {
			slog.Debug("env override applied to provider config",
				slog.String("provider", cfg.Name),
				slog.String("field", field.name),
			)
			cfg.ProviderConfig[field.name] = value
		}
	}
}

// splitPatterns splits a comma-separated pattern string into individual patterns.
// Whitespace around patterns is trimmed.
func splitPatterns(s string) []string {
	var patterns []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}
