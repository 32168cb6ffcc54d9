package monitor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/maxfield-allison/dnscontroller/internal/bus"
	"github.com/maxfield-allison/dnscontroller/internal/dockerevents"
)

// Direct polls the cached container labels directly (no reverse proxy
// involved) and extracts hostnames from three label forms: a csv hostname
// list, a domain+subdomain(+use_apex) pair, and arbitrary host.* labels.
type Direct struct {
	poller        *Poller
	cache         *dockerevents.LabelCache
	genericPrefix string
	logger        *slog.Logger
}

// DirectOption configures a Direct monitor.
type DirectOption func(*Direct)

// WithDirectLogger sets a custom logger.
func WithDirectLogger(logger *slog.Logger) DirectOption {
	return func(d *Direct) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDirect creates a Direct monitor. genericPrefix namespaces the
// hostname-extraction labels, e.g. "dns." for "dns.hostname".
func NewDirect(cache *dockerevents.LabelCache, b *bus.Bus, pollInterval time.Duration, genericPrefix string, opts ...DirectOption) *Direct {
	d := &Direct{cache: cache, genericPrefix: genericPrefix, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	d.poller = newPoller("direct", bus.TopicLabelsUpdated, pollInterval, d.poll, b, d.logger)
	return d
}

func (d *Direct) Start(ctx context.Context) error { return d.poller.Start(ctx) }
func (d *Direct) Stop()                           { d.poller.Stop() }
func (d *Direct) IsRunning() bool                 { return d.poller.IsRunning() }
func (d *Direct) TriggerNow()                     { d.poller.TriggerNow(false) }

func (d *Direct) poll(ctx context.Context) ([]string, map[string]map[string]string, error) {
	all := d.cache.All()

	var hostnames []string
	labelsByHostname := make(map[string]map[string]string)
	seen := make(map[string]bool)

	for id, labels := range all {
		hosts := extractDirectHostnames(labels, d.genericPrefix)
		if len(hosts) == 0 {
			continue
		}
		for _, host := range hosts {
			if !seen[host] {
				seen[host] = true
				hostnames = append(hostnames, host)
			}
			labelsByHostname[host] = labels
		}
		d.logger.Debug("extracted hosts from container labels",
			slog.String("container", id), slog.Any("hosts", hosts))
	}

	return hostnames, labelsByHostname, nil
}

// extractDirectHostnames implements the three direct label forms:
//
//	<prefix>hostname=csv
//	<prefix>domain=d + <prefix>subdomain=csv (+ optional <prefix>use_apex=true)
//	<prefix>host.<anything>=h
func extractDirectHostnames(labels map[string]string, prefix string) []string {
	var hosts []string
	seen := make(map[string]bool)
	add := func(h string) {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && !seen[h] {
			seen[h] = true
			hosts = append(hosts, h)
		}
	}

	if csv, ok := labels[prefix+"hostname"]; ok {
		for _, h := range strings.Split(csv, ",") {
			add(h)
		}
	}

	if domain, ok := labels[prefix+"domain"]; ok && domain != "" {
		if subs, ok := labels[prefix+"subdomain"]; ok {
			for _, s := range strings.Split(subs, ",") {
				if s = strings.TrimSpace(s); s != "" {
					add(s + "." + domain)
				}
			}
		}
		if strings.EqualFold(strings.TrimSpace(labels[prefix+"use_apex"]), "true") {
			add(domain)
		}
	}

	hostPrefix := prefix + "host."
	for key, value := range labels {
		if strings.HasPrefix(key, hostPrefix) {
			add(value)
		}
	}

	return hosts
}
