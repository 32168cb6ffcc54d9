package webhook

import (
	"log/slog"

	"github.com/maxfield-allison/dnscontroller/pkg/httputil"
	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// Factory returns a provider.Factory for creating webhook provider instances.
func Factory() provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		providerCfg, err := LoadConfigFromMap(name, config)
		if err != nil {
			return nil, err
		}

		logger := slog.Default()
		httpClient := httputil.NewClient(&httputil.ClientConfig{
			Timeout: providerCfg.Timeout,
			Logger:  logger,
		})

		p, err := New(name, providerCfg,
			WithProviderHTTPClient(httpClient),
			WithProviderLogger(logger),
		)
		if err != nil {
			return nil, err
		}

		logger.Info("webhook provider created",
			slog.String("name", name),
			slog.String("url", providerCfg.URL),
		)

		return p, nil
	}
}
