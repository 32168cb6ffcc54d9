package dnsmanager

import "time"

// Config is the subset of runtime configuration the manager needs to turn
// labels into RecordConfigs and to drive orphan cleanup. It is a plain
// snapshot handed in by the caller (the config manager owns change
// notification; the manager just reads whatever snapshot it was given for
// the current run).
type Config struct {
	// ControllerName is embedded in the legacy marker comment providers are
	// asked to look for when adopting pre-existing records.
	ControllerName string

	// GenericLabelPrefix namespaces the per-field labels (e.g. "dns."); the
	// per-provider prefix (e.g. "dns." + providerName + ".") has no field of
	// its own and is built by providerPrefix.
	GenericLabelPrefix string

	DefaultManage  bool
	DefaultType    string
	DefaultTTL     int
	DefaultProxied bool

	CleanupOrphaned    bool
	CleanupGracePeriod time.Duration

	// ManagedRecords are the operator-configured tuples processManagedHostnames
	// ensures exist on every poll regardless of workload discovery.
	ManagedRecords []ManagedRecord

	// ProviderZones maps a provider instance name to the zone it is
	// authoritative for, used to canonicalize a bare or partial hostname
	// into an FQDN before it is submitted. A provider missing from this map
	// is treated as already receiving fully-qualified hostnames.
	ProviderZones map[string]string
}

// zoneFor returns the configured zone for a provider instance, or "" if none
// is configured.
func (c Config) zoneFor(providerName string) string {
	return c.ProviderZones[providerName]
}

// ManagedRecord is a fully-specified record the manager must keep present
// regardless of whether any discovered workload currently demands it. Unlike
// a regular hostname, its record fields are configured directly rather than
// derived from container labels.
type ManagedRecord struct {
	Hostname string
	Type     string
	Content  string
	TTL      int
	Proxied  *bool
}

// providerPrefix returns the namespaced label prefix for a given provider
// instance name, e.g. "dns.cloudflare.".
func (c Config) providerPrefix(providerName string) string {
	return c.GenericLabelPrefix + providerName + "."
}
