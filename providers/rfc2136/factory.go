package rfc2136

import (
	"log/slog"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// Factory returns a provider.Factory for creating RFC 2136 provider instances.
// This is the recommended way to register the RFC 2136 provider with the registry.
func Factory() provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		providerCfg, err := LoadConfigFromMap(name, config)
		if err != nil {
			return nil, err
		}

		logger := slog.Default()

		p, err := New(name, providerCfg, WithProviderLogger(logger))
		if err != nil {
			return nil, err
		}

		logger.Info("rfc2136 provider created",
			slog.String("name", name),
			slog.String("server", providerCfg.Server),
			slog.String("zone", providerCfg.Zone),
			slog.Bool("tsig", providerCfg.TSIGKeyName != ""),
			slog.Bool("tcp", providerCfg.UseTCP),
		)

		return p, nil
	}
}
