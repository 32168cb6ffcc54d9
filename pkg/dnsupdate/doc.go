// Package dnsupdate provides RFC 2136 Dynamic DNS Update client utilities for
// dnscontroller's rfc2136 provider.
//
// This package enables the provider to manage DNS records on any RFC
// 2136-compliant server, including BIND, Windows DNS Server, PowerDNS, Knot
// DNS, and many others.
//
// Key features:
//   - Full RFC 2136 (Dynamic Updates in DNS) support
//   - TSIG authentication (RFC 2845) with HMAC-MD5, HMAC-SHA256, HMAC-SHA512
//   - Support for all common record types (A, AAAA, CNAME, TXT, MX, SRV, PTR, NS)
//   - A new connection per exchange, with configurable timeouts
//   - Both UDP and TCP transport
//
// # Usage
//
// providers/rfc2136 owns reading `_FILE`-suffixed secrets and environment
// variables (via internal/config); this package only ever sees the resolved
// values, via LoadConfigFromMap or a Config literal:
//
//	config, err := dnsupdate.LoadConfigFromMap(map[string]string{
//	    "SERVER": "ns1.example.com:53",
//	    "ZONE":   "example.com.",
//	})
//	if err != nil {
//	    return err
//	}
//
//	client, err := dnsupdate.NewClient(config)
//	if err != nil {
//	    return err
//	}
//
//	err = client.Create(ctx, dnsupdate.Record{
//	    Name:  "myhost.example.com.",
//	    Type:  dns.TypeA,
//	    TTL:   300,
//	    RData: "192.168.1.100",
//	})
//
// # TSIG Authentication
//
// TSIG (Transaction Signature) is the standard authentication method for RFC 2136.
// Generate TSIG keys using BIND's dnssec-keygen or tsig-keygen:
//
//	tsig-keygen -a hmac-sha256 dnscontroller > dnscontroller.key
//
// Configure the key on the DNS server and set it on the rfc2136 provider
// instance's config map (TSIG_KEY_NAME / TSIG_SECRET / TSIG_ALGORITHM).
package dnsupdate
