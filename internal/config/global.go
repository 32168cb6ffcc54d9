package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Global configuration defaults.
const (
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultDryRun             = false
	DefaultCleanupOrphans     = true
	DefaultTTL                = 300
	DefaultPollInterval       = 60 * time.Second
	DefaultHealthPort         = 8080
	DefaultDockerHost         = "unix:///var/run/docker.sock"
	DefaultDockerMode         = "auto"
	DefaultOperationMode      = "router"
	DefaultManage             = false
	DefaultRecordType         = "A"
	DefaultProxied            = false
	DefaultCleanupGracePeriod = 5 * time.Minute
	DefaultGenericLabelPrefix = "dns."
	DefaultAPITimeout         = 10 * time.Second
	DefaultStateDir           = "/var/lib/dnscontroller"
)

// GlobalConfig holds application-wide settings.
// These are parsed from DNSCONTROLLER_* environment variables.
type GlobalConfig struct {
	// Logging configuration
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Behavior
	DryRun         bool          // If true, don't make actual DNS changes
	CleanupOrphans bool          // If true, delete DNS records for removed workloads
	DefaultTTL     int           // Default TTL for records if not specified per-hostname
	PollInterval   time.Duration // Monitor poll cadence
	HealthPort     int           // Port for health/metrics endpoints

	// Docker connection
	DockerHost string // Docker socket path or TCP URL
	DockerMode string // auto, swarm, standalone

	// Discovery
	OperationMode string // router or direct

	// Record defaults, applied when a hostname's labels omit the field
	DefaultManage     bool   // opt-in vs opt-out DNS management
	DefaultRecordType string // A, AAAA, CNAME, ...
	DefaultProxied    bool

	// Orphan garbage collection
	CleanupGracePeriod time.Duration // delay between marking and deleting an orphan

	// Label namespaces
	GenericLabelPrefix string // e.g. "dns."

	// Router-mode discovery endpoint
	RouterAPIURL      string
	RouterAPIUsername string
	RouterAPIPassword string

	// APITimeout bounds every outbound HTTP call (router catalog, provider APIs).
	APITimeout time.Duration

	// StateDir is the directory the record tracker persists its JSON store in.
	StateDir string
}

// loadGlobalConfig loads global configuration from environment variables.
// Returns a list of validation errors (may be empty).
func loadGlobalConfig() (*GlobalConfig, []string) {
	var errs []string

	cfg := &GlobalConfig{
		LogLevel:           getEnv("DNSCONTROLLER_LOG_LEVEL"),
		LogFormat:          getEnv("DNSCONTROLLER_LOG_FORMAT"),
		DockerHost:         getEnv("DNSCONTROLLER_DOCKER_HOST"),
		DockerMode:         getEnv("DNSCONTROLLER_DOCKER_MODE"),
		OperationMode:      getEnv("DNSCONTROLLER_OPERATION_MODE"),
		DefaultRecordType:  getEnv("DNSCONTROLLER_DEFAULT_RECORD_TYPE"),
		GenericLabelPrefix: getEnv("DNSCONTROLLER_LABEL_PREFIX"),
		RouterAPIURL:       getEnv("DNSCONTROLLER_ROUTER_API_URL"),
		RouterAPIUsername:  getEnv("DNSCONTROLLER_ROUTER_API_USERNAME"),
		RouterAPIPassword:  getEnvWithFileFallback("DNSCONTROLLER_ROUTER_API_", "PASSWORD"),
		StateDir:           getEnv("DNSCONTROLLER_STATE_DIR"),
	}

	// Apply defaults for empty values
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.DockerHost == "" {
		cfg.DockerHost = DefaultDockerHost
	}
	if cfg.DockerMode == "" {
		cfg.DockerMode = DefaultDockerMode
	}
	if cfg.OperationMode == "" {
		cfg.OperationMode = DefaultOperationMode
	}
	if cfg.DefaultRecordType == "" {
		cfg.DefaultRecordType = DefaultRecordType
	}
	if cfg.GenericLabelPrefix == "" {
		cfg.GenericLabelPrefix = DefaultGenericLabelPrefix
	}
	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir
	}

	// Validate log level
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("DNSCONTROLLER_LOG_LEVEL: invalid value %q (must be debug, info, warn, or error)", cfg.LogLevel))
	}

	// Validate log format
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("DNSCONTROLLER_LOG_FORMAT: invalid value %q (must be json or text)", cfg.LogFormat))
	}

	// Validate Docker mode
	cfg.DockerMode = strings.ToLower(cfg.DockerMode)
	switch cfg.DockerMode {
	case "auto", "swarm", "standalone":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("DNSCONTROLLER_DOCKER_MODE: invalid value %q (must be auto, swarm, or standalone)", cfg.DockerMode))
	}

	// Validate operation mode
	cfg.OperationMode = strings.ToLower(cfg.OperationMode)
	switch cfg.OperationMode {
	case "router", "direct":
		// Valid
	default:
		errs = append(errs, fmt.Sprintf("DNSCONTROLLER_OPERATION_MODE: invalid value %q (must be router or direct)", cfg.OperationMode))
	}

	// Normalize default record type
	cfg.DefaultRecordType = strings.ToUpper(cfg.DefaultRecordType)

	// Parse DRY_RUN
	if dryRunStr := getEnv("DNSCONTROLLER_DRY_RUN"); dryRunStr != "" {
		cfg.DryRun = parseBool(dryRunStr, DefaultDryRun)
	} else {
		cfg.DryRun = DefaultDryRun
	}

	// Parse CLEANUP_ORPHANS
	if cleanupStr := getEnv("DNSCONTROLLER_CLEANUP_ORPHANS"); cleanupStr != "" {
		cfg.CleanupOrphans = parseBool(cleanupStr, DefaultCleanupOrphans)
	} else {
		cfg.CleanupOrphans = DefaultCleanupOrphans
	}

	// Parse DEFAULT_MANAGE
	if manageStr := getEnv("DNSCONTROLLER_DEFAULT_MANAGE"); manageStr != "" {
		cfg.DefaultManage = parseBool(manageStr, DefaultManage)
	} else {
		cfg.DefaultManage = DefaultManage
	}

	// Parse DEFAULT_PROXIED
	if proxiedStr := getEnv("DNSCONTROLLER_DEFAULT_PROXIED"); proxiedStr != "" {
		cfg.DefaultProxied = parseBool(proxiedStr, DefaultProxied)
	} else {
		cfg.DefaultProxied = DefaultProxied
	}

	// Parse DEFAULT_TTL
	if ttlStr := getEnv("DNSCONTROLLER_DEFAULT_TTL"); ttlStr != "" {
		ttl, err := strconv.Atoi(ttlStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("DNSCONTROLLER_DEFAULT_TTL: invalid integer %q", ttlStr))
		} else if ttl < 1 {
			errs = append(errs, "DNSCONTROLLER_DEFAULT_TTL: must be at least 1")
		} else {
			cfg.DefaultTTL = ttl
		}
	} else {
		cfg.DefaultTTL = DefaultTTL
	}

	// Parse POLL_INTERVAL (supports Go duration format: 60s, 5m, etc.)
	if intervalStr := getEnv("DNSCONTROLLER_POLL_INTERVAL"); intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("DNSCONTROLLER_POLL_INTERVAL: invalid duration %q (use format like 60s, 5m)", intervalStr))
		} else if interval < time.Second {
			errs = append(errs, "DNSCONTROLLER_POLL_INTERVAL: must be at least 1s")
		} else {
			cfg.PollInterval = interval
		}
	} else {
		cfg.PollInterval = DefaultPollInterval
	}

	// Parse CLEANUP_GRACE_PERIOD
	if graceStr := getEnv("DNSCONTROLLER_CLEANUP_GRACE_PERIOD"); graceStr != "" {
		grace, err := time.ParseDuration(graceStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("DNSCONTROLLER_CLEANUP_GRACE_PERIOD: invalid duration %q", graceStr))
		} else if grace < 0 {
			errs = append(errs, "DNSCONTROLLER_CLEANUP_GRACE_PERIOD: must not be negative")
		} else {
			cfg.CleanupGracePeriod = grace
		}
	} else {
		cfg.CleanupGracePeriod = DefaultCleanupGracePeriod
	}

	// Parse API_TIMEOUT
	if timeoutStr := getEnv("DNSCONTROLLER_API_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("DNSCONTROLLER_API_TIMEOUT: invalid duration %q", timeoutStr))
		} else if timeout < time.Millisecond {
			errs = append(errs, "DNSCONTROLLER_API_TIMEOUT: must be at least 1ms")
		} else {
			cfg.APITimeout = timeout
		}
	} else {
		cfg.APITimeout = DefaultAPITimeout
	}

	// Parse HEALTH_PORT
	if portStr := getEnv("DNSCONTROLLER_HEALTH_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("DNSCONTROLLER_HEALTH_PORT: invalid integer %q", portStr))
		} else if port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("DNSCONTROLLER_HEALTH_PORT: must be between 1 and 65535, got %d", port))
		} else {
			cfg.HealthPort = port
		}
	} else {
		cfg.HealthPort = DefaultHealthPort
	}

	return cfg, errs
}
