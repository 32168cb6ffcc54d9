package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/maxfield-allison/dnscontroller/internal/bus"
	"github.com/maxfield-allison/dnscontroller/internal/dockerevents"
	"github.com/maxfield-allison/dnscontroller/pkg/routerclient"
)

// Router periodically fetches a reverse proxy's router catalog, extracts
// hostnames from each router's Host() rule, and joins them to the labels of
// the container backing that router's service.
type Router struct {
	poller *Poller
	client *routerclient.Client
	cache  *dockerevents.LabelCache
	logger *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets a custom logger.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter creates a Router monitor.
func NewRouter(client *routerclient.Client, cache *dockerevents.LabelCache, b *bus.Bus, pollInterval time.Duration, opts ...RouterOption) *Router {
	r := &Router{client: client, cache: cache, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.poller = newPoller("router", bus.TopicRoutersUpdated, pollInterval, r.poll, b, r.logger)
	return r
}

func (r *Router) Start(ctx context.Context) error { return r.poller.Start(ctx) }
func (r *Router) Stop()                           { r.poller.Stop() }
func (r *Router) IsRunning() bool                 { return r.poller.IsRunning() }
func (r *Router) TriggerNow()                     { r.poller.TriggerNow(false) }

func (r *Router) poll(ctx context.Context) ([]string, map[string]map[string]string, error) {
	catalog, err := r.client.Fetch(ctx)
	if err != nil {
		// Per spec: an invalid/unreachable router payload must not abort the
		// pipeline. Log and substitute the empty set.
		r.logger.Warn("router catalog fetch failed, using empty hostname set",
			slog.String("error", err.Error()))
		return nil, nil, nil
	}

	var hostnames []string
	labelsByHostname := make(map[string]map[string]string)
	seen := make(map[string]bool)

	for routerName, route := range catalog {
		hosts := routerclient.ExtractHosts(route.Rule)
		if len(hosts) == 0 {
			continue
		}

		labels, _ := r.cache.LabelsByName(route.Service)

		for _, host := range hosts {
			if !seen[host] {
				seen[host] = true
				hostnames = append(hostnames, host)
			}
			if labels != nil {
				labelsByHostname[host] = mergeLabels(labelsByHostname[host], labels)
			}
		}

		r.logger.Debug("extracted hosts from router",
			slog.String("router", routerName), slog.Any("hosts", hosts), slog.String("service", route.Service))
	}

	return hostnames, labelsByHostname, nil
}

// mergeLabels combines dst (possibly nil) with src, src's keys taking
// precedence on conflict since it reflects the most recently observed
// router entry for this hostname.
func mergeLabels(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
