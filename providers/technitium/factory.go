package technitium

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/maxfield-allison/dnscontroller/pkg/httputil"
	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// Factory returns a provider.Factory for creating Technitium provider instances.
func Factory() provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		providerCfg, err := LoadConfigFromMap(name, config)
		if err != nil {
			return nil, err
		}

		logger := slog.Default()
		httpClient := httputil.NewClient(&httputil.ClientConfig{
			TLSSkipVerify: providerCfg.InsecureSkipVerify,
			Logger:        logger,
		})

		if providerCfg.InsecureSkipVerify {
			logger.Warn("TLS certificate verification disabled for Technitium provider",
				slog.String("provider", name),
				slog.String("url", providerCfg.URL),
			)
		}

		return NewWithHTTPClient(name, providerCfg, httpClient, logger)
	}
}

// NewWithHTTPClient creates a new Technitium provider with a pre-configured HTTP client.
func NewWithHTTPClient(name string, config *Config, httpClient *http.Client, logger *slog.Logger) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	p := &Provider{
		name:   name,
		zone:   config.Zone,
		ttl:    config.TTL,
		logger: logger,
	}

	p.client = NewClient(config.URL, config.Token, WithHTTPClient(httpClient), WithLogger(logger))

	return p, nil
}
