package config

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Observer is invoked with (key, old, new) after a Manager commits a change.
type Observer func(key string, oldValue, newValue any)

// Manager wraps a Config behind a mutex and notifies registered Observers
// after every committed change, mirroring the same subscribe-then-dispatch
// shape internal/bus uses for the event bus. Changing operationMode
// triggers re-activation only through an Observer the caller subscribes
// for that key; cmd/dnscontroller does not create a Manager, so no such
// observer is wired in this tree.
type Manager struct {
	mu        sync.RWMutex
	cfg       *Config
	observers []Observer
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets a custom logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager wraps an already-loaded Config for atomic, observable mutation.
func NewManager(cfg *Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers an Observer, invoked after every committed change.
func (m *Manager) Subscribe(obs Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, obs)
}

// Snapshot returns the current Config. Callers must not mutate it; Set*
// methods always replace Global wholesale rather than mutating in place.
func (m *Manager) Snapshot() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// notify fires observers outside the lock, after the change has committed.
func (m *Manager) notify(key string, oldValue, newValue any) {
	m.mu.RLock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.RUnlock()

	for _, obs := range observers {
		obs(key, oldValue, newValue)
	}
	m.logger.Info("config option changed", slog.String("key", key))
}

// commitGlobal copies the current Global, applies mutate, swaps it in under
// the lock, and returns the replaced and new values for notification. It's
// the atomic-commit primitive every Set* method below builds on.
func (m *Manager) commitGlobal(mutate func(*GlobalConfig)) (old, updated GlobalConfig) {
	m.mu.Lock()
	old = *m.cfg.Global
	next := *m.cfg.Global
	mutate(&next)
	updated = next
	newCfg := *m.cfg
	newCfg.Global = &next
	m.cfg = &newCfg
	m.mu.Unlock()
	return old, updated
}

// SetPollInterval changes the monitor poll cadence.
func (m *Manager) SetPollInterval(d time.Duration) error {
	if d < time.Second {
		return fmt.Errorf("pollInterval: must be at least 1s")
	}
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.PollInterval = d })
	if old.PollInterval != updated.PollInterval {
		m.notify("pollInterval", old.PollInterval, updated.PollInterval)
	}
	return nil
}

// SetOperationMode changes the active discovery mode (router or direct).
// This is the key whose change must trigger re-activation in the Mode
// Switcher (spec: "Changing operationMode ... triggers re-activation").
func (m *Manager) SetOperationMode(mode string) error {
	switch mode {
	case "router", "direct":
	default:
		return fmt.Errorf("operationMode: invalid value %q (must be router or direct)", mode)
	}
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.OperationMode = mode })
	if old.OperationMode != updated.OperationMode {
		m.notify("operationMode", old.OperationMode, updated.OperationMode)
	}
	return nil
}

// SetCleanupOrphaned toggles orphan garbage collection.
func (m *Manager) SetCleanupOrphaned(enabled bool) {
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.CleanupOrphans = enabled })
	if old.CleanupOrphans != updated.CleanupOrphans {
		m.notify("cleanupOrphaned", old.CleanupOrphans, updated.CleanupOrphans)
	}
}

// SetCleanupGracePeriod changes the orphan mark-to-delete delay.
func (m *Manager) SetCleanupGracePeriod(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("cleanupGracePeriod: must not be negative")
	}
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.CleanupGracePeriod = d })
	if old.CleanupGracePeriod != updated.CleanupGracePeriod {
		m.notify("cleanupGracePeriod", old.CleanupGracePeriod, updated.CleanupGracePeriod)
	}
	return nil
}

// SetDefaultManage changes the opt-in/opt-out default for DNS management.
func (m *Manager) SetDefaultManage(manage bool) {
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.DefaultManage = manage })
	if old.DefaultManage != updated.DefaultManage {
		m.notify("defaultManage", old.DefaultManage, updated.DefaultManage)
	}
}

// SetDefaultRecordType changes the fallback record type for label-less hostnames.
func (m *Manager) SetDefaultRecordType(recordType string) {
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.DefaultRecordType = recordType })
	if old.DefaultRecordType != updated.DefaultRecordType {
		m.notify("defaultType", old.DefaultRecordType, updated.DefaultRecordType)
	}
}

// SetDefaultProxied changes the fallback proxied flag.
func (m *Manager) SetDefaultProxied(proxied bool) {
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.DefaultProxied = proxied })
	if old.DefaultProxied != updated.DefaultProxied {
		m.notify("defaultProxied", old.DefaultProxied, updated.DefaultProxied)
	}
}

// SetGenericLabelPrefix changes the generic label namespace.
func (m *Manager) SetGenericLabelPrefix(prefix string) {
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.GenericLabelPrefix = prefix })
	if old.GenericLabelPrefix != updated.GenericLabelPrefix {
		m.notify("genericLabelPrefix", old.GenericLabelPrefix, updated.GenericLabelPrefix)
	}
}

// SetRouterAPIURL changes the router-mode discovery endpoint.
func (m *Manager) SetRouterAPIURL(url string) {
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.RouterAPIURL = url })
	if old.RouterAPIURL != updated.RouterAPIURL {
		m.notify("routerApiUrl", old.RouterAPIURL, updated.RouterAPIURL)
	}
}

// SetAPITimeout changes the bound on outbound HTTP calls.
func (m *Manager) SetAPITimeout(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("apiTimeout: must be positive")
	}
	old, updated := m.commitGlobal(func(g *GlobalConfig) { g.APITimeout = d })
	if old.APITimeout != updated.APITimeout {
		m.notify("apiTimeout", old.APITimeout, updated.APITimeout)
	}
	return nil
}
