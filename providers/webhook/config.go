package webhook

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout for webhook requests.
const DefaultTimeout = 30 * time.Second

// DefaultRetries is the default number of retry attempts for transient failures.
const DefaultRetries = 3

// DefaultRetryDelay is the base delay between retry attempts.
const DefaultRetryDelay = time.Second

// Config holds webhook-specific configuration.
type Config struct {
	URL        string        // Base URL for the webhook endpoint (required)
	Timeout    time.Duration // HTTP client timeout (default: 30s)
	AuthHeader string        // Custom authentication header name (optional)
	AuthToken  string        // Authentication token value (optional)
	Retries    int           // Number of retry attempts (default: 3)
	RetryDelay time.Duration // Base delay between retries (default: 1s)
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.URL == "" {
		errs = append(errs, "URL is required")
	} else if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		errs = append(errs, "URL must start with http:// or https://")
	}

	if c.AuthHeader != "" && c.AuthToken == "" {
		errs = append(errs, "AUTH_TOKEN is required when AUTH_HEADER is set")
	}

	if c.Timeout < 0 {
		errs = append(errs, "TIMEOUT must be non-negative")
	}

	if c.Retries < 0 {
		errs = append(errs, "RETRIES must be non-negative")
	}

	if c.RetryDelay < 0 {
		errs = append(errs, "RETRY_DELAY must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("webhook config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LoadConfigFromMap builds a Config from a provider configuration map, as
// supplied by the provider registry.
//
// Supported keys:
//   - URL: base webhook URL (required)
//   - TIMEOUT: HTTP timeout duration (optional, default: 30s)
//   - AUTH_HEADER: custom auth header name (optional, e.g. "X-API-Key")
//   - AUTH_TOKEN: auth token value (required if AUTH_HEADER set)
//   - RETRIES: number of retry attempts (optional, default: 3)
//   - RETRY_DELAY: base delay between retries (optional, default: 1s)
func LoadConfigFromMap(instanceName string, configMap map[string]string) (*Config, error) {
	config := &Config{
		URL:        configMap["URL"],
		Timeout:    DefaultTimeout,
		AuthHeader: configMap["AUTH_HEADER"],
		AuthToken:  configMap["AUTH_TOKEN"],
		Retries:    DefaultRetries,
		RetryDelay: DefaultRetryDelay,
	}

	if timeoutStr := configMap["TIMEOUT"]; timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("configuration for %s: invalid TIMEOUT value %q: %w", instanceName, timeoutStr, err)
		}
		config.Timeout = timeout
	}

	if retriesStr := configMap["RETRIES"]; retriesStr != "" {
		retries, err := strconv.Atoi(retriesStr)
		if err != nil {
			return nil, fmt.Errorf("configuration for %s: invalid RETRIES value %q: %w", instanceName, retriesStr, err)
		}
		config.Retries = retries
	}

	if delayStr := configMap["RETRY_DELAY"]; delayStr != "" {
		delay, err := time.ParseDuration(delayStr)
		if err != nil {
			return nil, fmt.Errorf("configuration for %s: invalid RETRY_DELAY value %q: %w", instanceName, delayStr, err)
		}
		config.RetryDelay = delay
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration for %s: %w", instanceName, err)
	}

	return config, nil
}
