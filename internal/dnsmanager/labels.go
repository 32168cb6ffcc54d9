package dnsmanager

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// fieldKeys are the per-record label suffixes that follow the
// generic-then-provider-override rule. "manage"/"skip" are resolved
// separately since they combine rather than simply override.
var fieldKeys = []string{"type", "content", "ttl", "proxied", "priority", "weight", "port", "flags", "tag"}

// lookupField returns the value for key under genericPrefix, overridden by
// the same key under providerPrefix if present, and whether either was set.
func lookupField(labels map[string]string, genericPrefix, providerPrefix, key string) (string, bool) {
	v, ok := labels[genericPrefix+key]
	if pv, pok := labels[providerPrefix+key]; pok {
		v, ok = pv, true
	}
	return v, ok
}

// resolveManage computes the effective management flag for one hostname on
// one provider, per spec: start from defaultManage, generic manage=true
// turns it on, a provider-specific manage value wins outright, and a skip=true
// (generic or provider) always forces it off last.
func resolveManage(labels map[string]string, genericPrefix, providerPrefix string, defaultManage bool) bool {
	manage := defaultManage

	if v, ok := labels[genericPrefix+"manage"]; ok {
		if b, err := strconv.ParseBool(v); err == nil && b {
			manage = true
		}
	}
	if v, ok := labels[providerPrefix+"manage"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			manage = b
		}
	}

	if v, ok := labels[genericPrefix+"skip"]; ok {
		if b, err := strconv.ParseBool(v); err == nil && b {
			manage = false
		}
	}
	if v, ok := labels[providerPrefix+"skip"]; ok {
		if b, err := strconv.ParseBool(v); err == nil && b {
			manage = false
		}
	}

	return manage
}

// desiredRecordConfig builds the RecordConfig for fqdn on one provider
// instance from its labels, falling back to cfg's defaults for type/ttl/
// proxied when labels set neither the generic nor the provider-specific key.
// content has no configured default: a hostname with no content label is
// reported as an error by the caller, since it has nothing to point at.
func desiredRecordConfig(fqdn string, labels map[string]string, providerName string, cfg Config) (provider.RecordConfig, error) {
	genericPrefix := cfg.GenericLabelPrefix
	providerPrefix := cfg.providerPrefix(providerName)

	rc := provider.RecordConfig{
		Name: fqdn,
		Type: provider.RecordType(cfg.DefaultType),
		TTL:  cfg.DefaultTTL,
	}
	if cfg.DefaultProxied {
		v := true
		rc.Proxied = &v
	}

	if v, ok := lookupField(labels, genericPrefix, providerPrefix, "type"); ok {
		rc.Type = provider.RecordType(strings.ToUpper(v))
	}

	content, ok := lookupField(labels, genericPrefix, providerPrefix, "content")
	if !ok {
		return provider.RecordConfig{}, fmt.Errorf("hostname %s: no content label set for provider %s", fqdn, providerName)
	}
	rc.Content = content

	if v, ok := lookupField(labels, genericPrefix, providerPrefix, "ttl"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("hostname %s: invalid ttl label %q: %w", fqdn, v, err)
		}
		rc.TTL = n
	}

	if v, ok := lookupField(labels, genericPrefix, providerPrefix, "proxied"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("hostname %s: invalid proxied label %q: %w", fqdn, v, err)
		}
		rc.Proxied = &b
	}

	if v, ok := lookupField(labels, genericPrefix, providerPrefix, "priority"); ok {
		n, err := parseUint16(v)
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("hostname %s: invalid priority label %q: %w", fqdn, v, err)
		}
		rc.Priority = &n
	}
	if v, ok := lookupField(labels, genericPrefix, providerPrefix, "weight"); ok {
		n, err := parseUint16(v)
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("hostname %s: invalid weight label %q: %w", fqdn, v, err)
		}
		rc.Weight = &n
	}
	if v, ok := lookupField(labels, genericPrefix, providerPrefix, "port"); ok {
		n, err := parseUint16(v)
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("hostname %s: invalid port label %q: %w", fqdn, v, err)
		}
		rc.Port = &n
	}
	if v, ok := lookupField(labels, genericPrefix, providerPrefix, "flags"); ok {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return provider.RecordConfig{}, fmt.Errorf("hostname %s: invalid flags label %q: %w", fqdn, v, err)
		}
		f := uint8(n)
		rc.Flags = &f
	}
	if v, ok := lookupField(labels, genericPrefix, providerPrefix, "tag"); ok {
		rc.Tag = v
	}

	return rc, nil
}

func parseUint16(v string) (uint16, error) {
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

// canonicalizeFQDN lowercases hostname and appends zone as a suffix unless
// hostname already carries it. Monitors hand the manager hostnames that are
// already fully qualified against the managed zone in every supported label
// form, so this mainly normalizes case and trailing dots rather than
// performing real suffix stitching.
func canonicalizeFQDN(hostname, zone string) string {
	h := strings.ToLower(strings.TrimSuffix(hostname, "."))
	zone = strings.ToLower(strings.TrimSuffix(zone, "."))
	if zone == "" || h == zone || strings.HasSuffix(h, "."+zone) {
		return h
	}
	return h + "." + zone
}
