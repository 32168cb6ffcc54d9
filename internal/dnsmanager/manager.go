// Package dnsmanager implements the reconciler: it turns discovered
// hostnames plus their container labels into desired DNS record state,
// drives the provider registry to match it, and garbage-collects records
// that are no longer demanded once a configurable grace period elapses.
package dnsmanager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maxfield-allison/dnscontroller/internal/bus"
	"github.com/maxfield-allison/dnscontroller/internal/tracker"
	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// Manager is the DNS Manager described in the component design: given
// (hostnames, labelsByHostname) it computes the desired record set for
// every matching provider instance, submits it as a batch, tracks the
// results, and conditionally runs orphan cleanup.
type Manager struct {
	registry *provider.Registry
	tracker  *tracker.Tracker
	bus      *bus.Bus
	cfg      Config
	logger   *slog.Logger

	mu             sync.Mutex
	lastCleanup    time.Time
	loggedSkip     map[string]bool // fqdn+type already logged at info once
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Manager wired to the given registry, tracker and bus.
func New(registry *provider.Registry, trk *tracker.Tracker, b *bus.Bus, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		registry:   registry,
		tracker:    trk,
		bus:        b,
		cfg:        cfg,
		logger:     slog.Default(),
		loggedSkip: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init probes every registered provider and ensures the managed hostname
// list is up to date. It is the manager's half of startup; the provider
// registry's own connectivity retry loop (pkg/provider.Manager) is expected
// to have already brought instances up before this runs.
func (m *Manager) Init(ctx context.Context) error {
	for _, inst := range m.registry.All() {
		if err := inst.Provider.Init(ctx); err != nil {
			m.logger.Error("provider init failed",
				slog.String("provider", inst.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
	stats, err := m.ProcessManagedHostnames(ctx)
	if err != nil {
		return err
	}
	m.logger.Info("dns manager initialized", slog.String("managedHostnames", stats.String()))
	return nil
}
