// Package provider defines the DNS provider contract: the abstract record
// CRUD surface, the in-memory zone cache, and the batch-upsert algorithm
// the reconciler drives every provider adapter through.
//
// Concrete adapters (cloudflare, technitium, pihole, rfc2136, dnsmasq,
// webhook — see the providers/ directory) implement Provider against their
// own HTTP/DNS-update transport; this package never talks to the network.
package provider

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// RecordType is a DNS resource record type this controller can manage.
type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeAAAA  RecordType = "AAAA"
	RecordTypeCNAME RecordType = "CNAME"
	RecordTypeTXT   RecordType = "TXT"
	RecordTypeMX    RecordType = "MX"
	RecordTypeSRV   RecordType = "SRV"
	RecordTypeCAA   RecordType = "CAA"
	RecordTypeNS    RecordType = "NS"
	RecordTypePTR   RecordType = "PTR"
)

// TTLAuto is the sentinel TTL value meaning "let the provider choose".
// Providers that support a proxy/auto TTL concept (e.g. Cloudflare) treat
// any TTL labeled auto as equal to any other TTL during comparison.
const TTLAuto = 1

// RecordConfig is the desired state for a single DNS record, derived from
// container labels merged with configuration defaults.
type RecordConfig struct {
	Type    RecordType
	Name    string // fully-qualified, lowercased
	Content string

	// TTL in seconds; TTLAuto (1) means provider-auto. Anything below 60
	// other than TTLAuto is invalid and rejected by Validate.
	TTL int

	// Proxied is only meaningful for proxy-capable providers and for
	// A/AAAA/CNAME records; see DESIGN.md Open Question 1.
	Proxied *bool

	Priority *uint16 // MX, SRV
	Weight   *uint16 // SRV
	Port     *uint16 // SRV
	Flags    *uint8  // CAA
	Tag      string  // CAA
}

// Record is the observed state of a record as reported by a provider,
// adding the fields that only exist once a record is materialized.
type Record struct {
	RecordConfig
	ID      string // opaque provider identifier
	Zone    string
	Comment *string // legacy marker comment, e.g. "Managed by dnscontroller"
}

// Capabilities describes a provider adapter's feature support. The
// reconciler and the equality rules adapt their behavior based on it.
type Capabilities struct {
	// Proxyable indicates the provider supports a CDN-proxy concept
	// (e.g. Cloudflare's orange-cloud) for A/AAAA/CNAME records.
	Proxyable bool

	// SupportedRecordTypes lists the record types this provider can manage.
	SupportedRecordTypes []RecordType
}

// Supports returns true if rt is among the provider's supported types.
func (c Capabilities) Supports(rt RecordType) bool {
	for _, t := range c.SupportedRecordTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// Provider is the interface every DNS provider adapter must implement.
// It is intentionally small: the batch-upsert algorithm, the zone cache,
// and equality rules all live in this package and are built on top of
// these primitives, so adapters only need to speak their own transport.
type Provider interface {
	// Name returns the provider instance name.
	Name() string
	// Type returns the provider type identifier (e.g. "cloudflare").
	Type() string
	// Init probes credentials and primes any internal state. Called once
	// before the first List/Create/Update/Delete.
	Init(ctx context.Context) error
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Capabilities returns this adapter's feature support.
	Capabilities() Capabilities

	// List returns every record in the managed zone.
	List(ctx context.Context) ([]Record, error)
	// Create adds a new record and returns it with its provider-assigned ID.
	Create(ctx context.Context, cfg RecordConfig) (Record, error)
	// Update modifies the record identified by id in place.
	Update(ctx context.Context, id string, cfg RecordConfig) (Record, error)
	// Delete removes the record identified by id. Deleting an id the
	// provider reports as not-found MUST be treated as success.
	Delete(ctx context.Context, id string) error
}

// Validate checks a RecordConfig against the per-type validity rules and
// the TTL floor.
func (c RecordConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("record config: name is required")
	}
	if c.Type == "" {
		return fmt.Errorf("record config %s: type is required", c.Name)
	}
	if c.TTL != TTLAuto && c.TTL < 60 {
		return fmt.Errorf("record config %s: ttl must be >=60 or the auto sentinel (%d)", c.Name, TTLAuto)
	}
	switch c.Type {
	case RecordTypeA:
		ip := net.ParseIP(c.Content)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("record config %s: content %q is not a valid IPv4 address for an A record", c.Name, c.Content)
		}
	case RecordTypeAAAA:
		ip := net.ParseIP(c.Content)
		if ip == nil || ip.To4() != nil {
			return fmt.Errorf("record config %s: content %q is not a valid IPv6 address for an AAAA record", c.Name, c.Content)
		}
	case RecordTypeCNAME:
		if err := validateHostnameForm(c.Content); err != nil {
			return fmt.Errorf("record config %s: content %q is not a valid CNAME target: %w", c.Name, c.Content, err)
		}
	}
	return nil
}

func validateHostnameForm(s string) error {
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return fmt.Errorf("empty hostname")
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" {
			return fmt.Errorf("empty label")
		}
	}
	return nil
}

// normalizeCNAME returns s with exactly one trailing dot, for comparison.
func normalizeCNAME(s string) string {
	return strings.TrimSuffix(s, ".") + "."
}

// Equal reports whether current (observed) and desired (RecordConfig) are
// logically the same record: A/AAAA/TXT compared verbatim, CNAME compared
// after trailing-dot normalization, MX/SRV compared via structured fields,
// TTLAuto equal to any TTL, and proxied compared only for proxy-capable
// providers and types. The provider-assigned ID is never part of the
// comparison.
func Equal(current Record, desired RecordConfig, caps Capabilities) bool {
	if current.Type != desired.Type || current.Name != desired.Name {
		return false
	}

	switch current.Type {
	case RecordTypeCNAME:
		if normalizeCNAME(current.Content) != normalizeCNAME(desired.Content) {
			return false
		}
	case RecordTypeMX:
		if !sameMX(current, desired) {
			return false
		}
	case RecordTypeSRV:
		if !sameSRV(current, desired) {
			return false
		}
	default:
		if current.Content != desired.Content {
			return false
		}
	}

	if !sameTTL(current.TTL, desired.TTL) {
		return false
	}

	if caps.Proxyable && proxyableType(current.Type) {
		if !sameProxied(current.Proxied, desired.Proxied) {
			return false
		}
	}

	return true
}

func proxyableType(rt RecordType) bool {
	return rt == RecordTypeA || rt == RecordTypeAAAA || rt == RecordTypeCNAME
}

func sameProxied(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

func sameTTL(a, b int) bool {
	if a == TTLAuto || b == TTLAuto {
		return true
	}
	return a == b
}

func sameMX(current Record, desired RecordConfig) bool {
	if current.Content != desired.Content {
		return false
	}
	return sameUint16Ptr(current.Priority, desired.Priority)
}

func sameSRV(current Record, desired RecordConfig) bool {
	if current.Content != desired.Content {
		return false
	}
	return sameUint16Ptr(current.Priority, desired.Priority) &&
		sameUint16Ptr(current.Weight, desired.Weight) &&
		sameUint16Ptr(current.Port, desired.Port)
}

func sameUint16Ptr(a, b *uint16) bool {
	var av, bv uint16
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// LegacyMarkerComment is the comment the tracker looks for when adopting a
// pre-existing, un-tracked provider record as one this controller manages.
func LegacyMarkerComment(controllerName string) string {
	return "Managed by " + controllerName
}
