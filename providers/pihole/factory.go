package pihole

import (
	"log/slog"

	"github.com/maxfield-allison/dnscontroller/pkg/httputil"
	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// Factory returns a provider.Factory for creating Pi-hole provider instances.
// This is the recommended way to register the Pi-hole provider with the registry.
func Factory() provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		providerCfg, err := LoadConfigFromMap(name, config)
		if err != nil {
			return nil, err
		}

		logger := slog.Default()

		opts := []ProviderOption{WithProviderLogger(logger)}

		// Only create an HTTP client for API mode; file mode never dials out.
		if providerCfg.Mode == ModeAPI {
			skipVerify := getMapValue(config, "insecure_skip_verify") == "true"
			httpClient := httputil.NewClient(&httputil.ClientConfig{
				TLSSkipVerify: skipVerify,
				Logger:        logger,
			})

			if skipVerify {
				logger.Warn("TLS certificate verification disabled for Pi-hole provider",
					slog.String("provider", name),
					slog.String("url", providerCfg.URL),
				)
			}

			opts = append(opts, WithProviderHTTPClient(httpClient))
		}

		return New(name, providerCfg, opts...)
	}
}
