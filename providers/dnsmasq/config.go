package dnsmasq

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTTL is the default TTL for dnsmasq DNS records.
// Note: dnsmasq doesn't use TTL for local records, but we track it for consistency.
const DefaultTTL = 300

// DefaultConfigDir is the default directory for dnsmasq configuration files.
const DefaultConfigDir = "/etc/dnsmasq.d"

// DefaultConfigFile is the default filename for dnscontroller-managed records.
const DefaultConfigFile = "dnsweaver.conf"

// DefaultReloadCommand is the default command to reload dnsmasq configuration.
const DefaultReloadCommand = "systemctl reload dnsmasq"

// Config holds dnsmasq-specific configuration.
type Config struct {
	ConfigDir     string // Directory for config files (e.g., /etc/dnsmasq.d)
	ConfigFile    string // Filename for dnscontroller-managed records (e.g., dnsweaver.conf)
	ReloadCommand string // Command to reload dnsmasq (e.g., "systemctl reload dnsmasq")
	Zone          string // DNS zone for record filtering (optional)
	TTL           int    // Record TTL (for consistency with other providers)

	// SSH configuration for remote dnsmasq management (optional)
	SSHHost     string // SSH host (e.g., "pihole.local" or "192.168.1.100")
	SSHPort     int    // SSH port (default: 22)
	SSHUser     string // SSH username
	SSHKeyFile  string // Path to SSH private key file
	SSHPassword string // SSH password (alternative to key, not recommended)
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.ConfigDir == "" {
		errs = append(errs, "CONFIG_DIR is required")
	}
	if c.ConfigFile == "" {
		errs = append(errs, "CONFIG_FILE is required")
	}
	if c.ReloadCommand == "" {
		errs = append(errs, "RELOAD_COMMAND is required")
	}
	if c.TTL < 0 {
		errs = append(errs, "TTL must be non-negative")
	}

	// SSH validation: if any SSH option is set, host and user are required
	if c.IsSSHEnabled() {
		if c.SSHHost == "" {
			errs = append(errs, "SSH_HOST is required when SSH is enabled")
		}
		if c.SSHUser == "" {
			errs = append(errs, "SSH_USER is required when SSH is enabled")
		}
		// Either key or password required (but key preferred)
		if c.SSHKeyFile == "" && c.SSHPassword == "" {
			errs = append(errs, "SSH_KEY_FILE or SSH_PASSWORD is required when SSH is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("dnsmasq config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsSSHEnabled returns true if SSH configuration is provided.
func (c *Config) IsSSHEnabled() bool {
	return c.SSHHost != "" || c.SSHUser != "" || c.SSHKeyFile != "" || c.SSHPassword != ""
}

// ConfigFilePath returns the full path to the managed config file.
func (c *Config) ConfigFilePath() string {
	return c.ConfigDir + "/" + c.ConfigFile
}

// LoadConfigFromMap creates a Config from a map of key-value pairs.
// This is used by the provider registry to create instances from
// configuration resolved by internal/config.
//
// All keys are optional. CONFIG_DIR, CONFIG_FILE and RELOAD_COMMAND default to
// DefaultConfigDir, DefaultConfigFile and DefaultReloadCommand when missing or
// empty. Other keys: ZONE, TTL, SSH_HOST, SSH_PORT, SSH_USER, SSH_KEY_FILE, SSH_PASSWORD
func LoadConfigFromMap(instanceName string, configMap map[string]string) (*Config, error) {
	config := &Config{
		ConfigDir:     getMapWithDefault(configMap, "CONFIG_DIR", DefaultConfigDir),
		ConfigFile:    getMapWithDefault(configMap, "CONFIG_FILE", DefaultConfigFile),
		ReloadCommand: getMapWithDefault(configMap, "RELOAD_COMMAND", DefaultReloadCommand),
		Zone:          configMap["ZONE"],
		TTL:           DefaultTTL,
		SSHHost:       configMap["SSH_HOST"],
		SSHUser:       configMap["SSH_USER"],
		SSHKeyFile:    configMap["SSH_KEY_FILE"],
		SSHPassword:   configMap["SSH_PASSWORD"],
	}

	// Parse optional TTL
	if ttlStr, ok := configMap["TTL"]; ok && ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			return nil, fmt.Errorf("invalid TTL value %q: %w", ttlStr, err)
		}
		config.TTL = ttl
	}

	// Parse optional SSH port
	if portStr, ok := configMap["SSH_PORT"]; ok && portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SSH_PORT value %q: %w", portStr, err)
		}
		config.SSHPort = port
	} else if config.SSHHost != "" {
		config.SSHPort = 22
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration for %s: %w", instanceName, err)
	}

	return config, nil
}

// getMapWithDefault retrieves a map value with a default.
func getMapWithDefault(m map[string]string, key, defaultValue string) string {
	if value, ok := m[key]; ok && value != "" {
		return value
	}
	return defaultValue
}
