package dnsmanager

import (
	"context"
	"log/slog"

	"github.com/maxfield-allison/dnscontroller/internal/bus"
	"github.com/maxfield-allison/dnscontroller/internal/tracker"
	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// batchEntry pairs a RecordConfig with the provider instance it is destined
// for, so results can be tracked and logged against the right instance.
type batchEntry struct {
	inst *provider.ProviderInstance
	cfg  provider.RecordConfig
}

// ProcessHostnames implements the processHostnames algorithm: resolve the
// management flag and desired record config per (hostname, matching
// provider), batch them per provider, submit, track the results, and
// conditionally run orphan cleanup.
func (m *Manager) ProcessHostnames(ctx context.Context, hostnames []string, labelsByHostname map[string]map[string]string, containerRemoved bool) (Stats, error) {
	var stats Stats
	batches := make(map[string][]batchEntry)
	processed := make(map[string]bool) // fqdn set, for cleanup's active set

	for _, h := range hostnames {
		labels := labelsByHostname[h]
		for _, inst := range m.registry.MatchingProviders(h) {
			providerPrefix := m.cfg.providerPrefix(inst.Name())
			if !resolveManage(labels, m.cfg.GenericLabelPrefix, providerPrefix, m.cfg.DefaultManage) {
				continue
			}

			fqdn := canonicalizeFQDN(h, m.cfg.zoneFor(inst.Name()))
			rc, err := desiredRecordConfig(fqdn, labels, inst.Name(), m.cfg)
			if err != nil {
				stats.Errors++
				stats.Total++
				m.logger.Warn("skipping hostname: invalid record config",
					slog.String("hostname", fqdn),
					slog.String("provider", inst.Name()),
					slog.String("error", err.Error()),
				)
				continue
			}

			batches[inst.Name()] = append(batches[inst.Name()], batchEntry{inst: inst, cfg: rc})
			processed[fqdn] = true
		}
	}

	for providerName, entries := range batches {
		cfgs := make([]provider.RecordConfig, len(entries))
		for i, e := range entries {
			cfgs[i] = e.cfg
		}

		inst := entries[0].inst
		results, err := inst.EnsureRecords(ctx, cfgs)
		if err != nil {
			m.logger.Error("batch ensure failed",
				slog.String("provider", providerName),
				slog.String("error", err.Error()),
			)
			stats.Errors += len(cfgs)
			stats.Total += len(cfgs)
			continue
		}

		for _, res := range results {
			stats.Total++
			switch res.Outcome {
			case provider.OutcomeCreated:
				stats.Created++
				m.publishRecordChanged(bus.TopicDNSRecordCreated, providerName, res, "discovered")
			case provider.OutcomeUpdated:
				stats.Updated++
				m.publishRecordChanged(bus.TopicDNSRecordUpdated, providerName, res, "discovered")
			case provider.OutcomeUpToDate:
				stats.UpToDate++
			case provider.OutcomeError:
				stats.Errors++
				m.logger.Warn("record ensure failed",
					slog.String("provider", providerName),
					slog.String("hostname", res.Config.Name),
					slog.String("error", res.Err.Error()),
				)
				continue
			}

			if res.Record.ID == "" {
				continue
			}
			key := tracker.Key{
				Provider: providerName,
				Zone:     res.Record.Zone,
				Name:     res.Config.Name,
				Type:     string(res.Config.Type),
			}
			m.trackResult(key, res.Record.ID)
		}
	}

	active := make([]string, 0, len(processed))
	for fqdn := range processed {
		active = append(active, fqdn)
	}

	if m.cfg.CleanupOrphaned || containerRemoved {
		if _, err := m.CleanupOrphanedRecords(ctx, active); err != nil {
			m.logger.Error("orphan cleanup failed", slog.String("error", err.Error()))
		}
	}

	m.bus.Publish(bus.TopicDNSRecordsUpdated, RecordsUpdated{Stats: stats, ProcessedHostnames: active})
	return stats, nil
}

// trackResult records or updates the tracker entry for a successfully
// ensured record, per step 4 of processHostnames: update the id if the
// logical key is already tracked, otherwise track it as newly created.
func (m *Manager) trackResult(key tracker.Key, id string) {
	if m.tracker.IsTracked(key) {
		if err := m.tracker.UpdateID(key, id); err != nil {
			m.logger.Error("tracker update failed", slog.Any("key", key), slog.String("error", err.Error()))
		}
		return
	}
	if err := m.tracker.Track(key, id); err != nil {
		m.logger.Error("tracker track failed", slog.Any("key", key), slog.String("error", err.Error()))
	}
}

// ProcessManagedHostnames ensures every configured ManagedRecord exists on
// every provider instance matching its hostname, independent of workload
// discovery.
func (m *Manager) ProcessManagedHostnames(ctx context.Context) (Stats, error) {
	var stats Stats
	batches := make(map[string][]batchEntry)

	for _, mr := range m.cfg.ManagedRecords {
		rc := provider.RecordConfig{
			Name:    mr.Hostname,
			Type:    provider.RecordType(mr.Type),
			Content: mr.Content,
			TTL:     mr.TTL,
			Proxied: mr.Proxied,
		}
		for _, inst := range m.registry.MatchingProviders(mr.Hostname) {
			batches[inst.Name()] = append(batches[inst.Name()], batchEntry{inst: inst, cfg: rc})
		}
	}

	for providerName, entries := range batches {
		cfgs := make([]provider.RecordConfig, len(entries))
		for i, e := range entries {
			cfgs[i] = e.cfg
		}
		inst := entries[0].inst
		results, err := inst.EnsureRecords(ctx, cfgs)
		if err != nil {
			stats.Errors += len(cfgs)
			stats.Total += len(cfgs)
			continue
		}
		for _, res := range results {
			stats.Total++
			switch res.Outcome {
			case provider.OutcomeCreated:
				stats.Created++
				m.publishRecordChanged(bus.TopicDNSRecordCreated, providerName, res, "managed")
			case provider.OutcomeUpdated:
				stats.Updated++
				m.publishRecordChanged(bus.TopicDNSRecordUpdated, providerName, res, "managed")
			case provider.OutcomeUpToDate:
				stats.UpToDate++
			case provider.OutcomeError:
				stats.Errors++
				continue
			}
			if res.Record.ID == "" {
				continue
			}
			m.trackResult(tracker.Key{
				Provider: providerName,
				Zone:     res.Record.Zone,
				Name:     res.Config.Name,
				Type:     string(res.Config.Type),
			}, res.Record.ID)
		}
	}

	return stats, nil
}

// publishRecordChanged emits a RecordChanged event for one ensure outcome.
func (m *Manager) publishRecordChanged(topic, providerName string, res provider.Result, source string) {
	m.bus.Publish(topic, RecordChanged{
		Provider:   providerName,
		Zone:       res.Record.Zone,
		Hostname:   res.Config.Name,
		RecordType: string(res.Config.Type),
		Source:     source,
	})
}
