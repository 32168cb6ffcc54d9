// Package monitor implements the two hostname-discovery pollers: Router
// (reverse-proxy catalog) and Direct (container labels). Both share the
// reentry-guarded, trigger-coalescing Poller skeleton in this file.
package monitor

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maxfield-allison/dnscontroller/internal/bus"
)

// PollFunc performs one discovery pass and returns the full hostname set
// plus per-hostname labels for this run. A nil error with an empty result
// is a legitimate "nothing found" outcome; PollFunc itself is expected to
// degrade gracefully (log + empty set) rather than propagate a source
// error, per spec, but a returned error is still tolerated defensively.
type PollFunc func(ctx context.Context) (hostnames []string, labelsByHostname map[string]map[string]string, err error)

// DiscoveryUpdate is the payload published on the monitor's discovery topic
// (ROUTERS_UPDATED for the Router monitor, LABELS_UPDATED for Direct).
type DiscoveryUpdate struct {
	Hostnames         []string
	LabelsByHostname  map[string]map[string]string
	ContainerRemoved  bool
}

// PollStarted is published before every poll run.
type PollStarted struct {
	Monitor string
}

// PollCompleted is published after every poll run.
type PollCompleted struct {
	Monitor       string
	HostnameCount int
}

// Poller runs pollFunc at most once at a time on pollInterval, coalescing
// any trigger that arrives mid-run into a single follow-up run, and
// publishes POLL_STARTED/<topic>/POLL_COMPLETED around each run.
type Poller struct {
	name         string
	topic        string
	pollInterval time.Duration
	pollFunc     PollFunc
	bus          *bus.Bus
	logger       *slog.Logger

	trigger chan bool // payload is containerRemoved

	mu          sync.Mutex
	cancel      context.CancelFunc
	running     bool
	lastHosts   []string
	everLogged  bool
}

func newPoller(name, topic string, interval time.Duration, fn PollFunc, b *bus.Bus, logger *slog.Logger) *Poller {
	return &Poller{
		name:         name,
		topic:        topic,
		pollInterval: interval,
		pollFunc:     fn,
		bus:          b,
		logger:       logger,
		trigger:      make(chan bool, 1),
	}
}

// Start begins the polling loop. Non-blocking; an initial poll runs
// immediately, then every pollInterval thereafter.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return nil
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	p.mu.Unlock()

	go p.loop(ctx)
	return nil
}

// Stop halts the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running = false
}

// IsRunning reports whether the loop is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// TriggerNow requests an expedited poll outside the regular interval, e.g.
// on a container stop/destroy event. If a poll is already running, the
// trigger is coalesced with the one already queued rather than blocking.
func (p *Poller) TriggerNow(containerRemoved bool) {
	select {
	case p.trigger <- containerRemoved:
	default:
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.runOnce(ctx, false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx, false)
		case removed := <-p.trigger:
			p.runOnce(ctx, removed)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context, containerRemoved bool) {
	p.bus.Publish(bus.TopicPollStarted, PollStarted{Monitor: p.name})

	hostnames, labels, err := p.pollFunc(ctx)
	if err != nil {
		p.logger.Error("poll failed, substituting empty result",
			slog.String("monitor", p.name), slog.String("error", err.Error()))
		hostnames, labels = nil, nil
	}

	p.logSummary(hostnames)

	p.bus.Publish(p.topic, DiscoveryUpdate{
		Hostnames:        hostnames,
		LabelsByHostname: labels,
		ContainerRemoved: containerRemoved,
	})
	p.bus.Publish(bus.TopicPollCompleted, PollCompleted{Monitor: p.name, HostnameCount: len(hostnames)})
}

// logSummary logs the poll outcome, down-converting from Info to Debug once
// the same hostname set has already been reported as up to date, so a quiet
// system doesn't repeat an identical line every interval.
func (p *Poller) logSummary(hostnames []string) {
	p.mu.Lock()
	unchanged := p.everLogged && sameHostnameSet(p.lastHosts, hostnames)
	p.lastHosts = append([]string(nil), hostnames...)
	p.everLogged = true
	p.mu.Unlock()

	if unchanged {
		p.logger.Debug("poll complete, hostnames unchanged",
			slog.String("monitor", p.name), slog.Int("count", len(hostnames)))
		return
	}
	p.logger.Info("poll complete",
		slog.String("monitor", p.name), slog.Int("count", len(hostnames)))
}

func sameHostnameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if !strings.EqualFold(as[i], bs[i]) {
			return false
		}
	}
	return true
}
