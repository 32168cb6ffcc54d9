package dnsmanager

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/maxfield-allison/dnscontroller/internal/bus"
	"github.com/maxfield-allison/dnscontroller/internal/tracker"
	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// infraRecordTypes are never garbage-collected regardless of tracking state;
// they belong to the zone's own plumbing, not a workload.
var infraRecordTypes = map[string]bool{"NS": true, "SOA": true, "CAA": true}

// CleanupOrphanedRecords implements the cleanupOrphanedRecords algorithm:
// any tracked (or legacy-adopted) record whose FQDN is absent from active is
// marked as an orphan candidate; once the grace period elapses without
// reappearing, it is deleted. A record that reappears before the grace
// period elapses has its orphan mark cleared.
func (m *Manager) CleanupOrphanedRecords(ctx context.Context, active []string) (CleanupSummary, error) {
	m.mu.Lock()
	if !m.lastCleanup.IsZero() && time.Since(m.lastCleanup) < cleanupDebounce {
		m.mu.Unlock()
		return CleanupSummary{}, nil
	}
	m.lastCleanup = time.Now()
	m.mu.Unlock()

	activeSet := make(map[string]bool, len(active))
	for _, h := range active {
		activeSet[strings.ToLower(h)] = true
	}

	var summary CleanupSummary
	for _, inst := range m.registry.All() {
		records, err := inst.Records(ctx, true)
		if err != nil {
			m.logger.Error("cleanup: refreshing zone records failed",
				slog.String("provider", inst.Name()), slog.String("error", err.Error()))
			continue
		}

		for _, rec := range records {
			m.cleanupOneRecord(ctx, inst, rec, activeSet, &summary)
		}
	}

	m.logger.Info("orphan cleanup complete", slog.String("summary", summary.String()))
	return summary, nil
}

func (m *Manager) cleanupOneRecord(ctx context.Context, inst *provider.ProviderInstance, rec provider.Record, activeSet map[string]bool, summary *CleanupSummary) {
	zone := strings.ToLower(strings.TrimSuffix(rec.Zone, "."))
	name := strings.ToLower(strings.TrimSuffix(rec.Name, "."))

	if name == "@" || name == zone {
		return
	}
	if infraRecordTypes[string(rec.Type)] {
		return
	}

	key := tracker.Key{Provider: inst.Name(), Zone: rec.Zone, Name: rec.Name, Type: string(rec.Type)}
	fqdn := reconstructFQDN(name, zone)
	if !m.tracker.IsTracked(key) {
		if !m.tracker.AdoptLegacy(key, rec.ID, rec.Comment, m.cfg.ControllerName) {
			return
		}
		m.bus.Publish(bus.TopicDNSRecordCreated, RecordChanged{
			Provider:   inst.Name(),
			Zone:       rec.Zone,
			Hostname:   fqdn,
			RecordType: string(rec.Type),
			Source:     "adopted",
		})
	}

	if m.tracker.ShouldPreserve(fqdn) || m.tracker.IsManagedHostname(fqdn) {
		m.logSkippedOnce(fqdn, string(rec.Type))
		return
	}

	if activeSet[fqdn] {
		if m.tracker.IsOrphan(key) {
			if err := m.tracker.ClearOrphan(key); err == nil {
				summary.Reactivated++
				m.logger.Info("record reactivated", slog.String("hostname", fqdn), slog.String("type", string(rec.Type)))
			}
		}
		return
	}

	if !m.tracker.IsOrphan(key) {
		if err := m.tracker.MarkOrphan(key); err != nil {
			m.logger.Error("failed to mark orphan", slog.String("hostname", fqdn), slog.String("error", err.Error()))
			return
		}
		summary.NewlyMarked++
		m.logger.Info("record marked orphan, will delete after grace period",
			slog.String("hostname", fqdn),
			slog.String("type", string(rec.Type)),
			slog.Duration("gracePeriod", m.cfg.CleanupGracePeriod),
		)
		return
	}

	orphanedAt, _ := m.tracker.OrphanedAt(key)
	if time.Since(orphanedAt) >= m.cfg.CleanupGracePeriod {
		if err := inst.DeleteRecord(ctx, rec.ID); err != nil {
			m.logger.Error("failed to delete orphaned record",
				slog.String("hostname", fqdn), slog.String("error", err.Error()))
			return
		}
		if err := m.tracker.Untrack(key); err != nil {
			m.logger.Error("failed to untrack deleted record", slog.String("hostname", fqdn), slog.String("error", err.Error()))
		}
		summary.DeletedAfterGrace++
		m.bus.Publish(bus.TopicDNSRecordDeleted, RecordDeleted{
			Provider:   inst.Name(),
			Zone:       rec.Zone,
			Hostname:   fqdn,
			RecordType: string(rec.Type),
		})
		m.logger.Info("orphaned record deleted", slog.String("hostname", fqdn), slog.String("type", string(rec.Type)))
		return
	}

	remaining := m.cfg.CleanupGracePeriod - time.Since(orphanedAt)
	m.logger.Debug("orphan grace period not yet elapsed",
		slog.String("hostname", fqdn), slog.Duration("remaining", remaining))
}

// logSkippedOnce logs a preserved/managed-hostname skip at info the first
// time a given fqdn+type is seen, and at debug on every subsequent cleanup
// pass, to avoid repeating the same line every poll forever.
func (m *Manager) logSkippedOnce(fqdn, recordType string) {
	key := fqdn + "/" + recordType
	m.mu.Lock()
	seen := m.loggedSkip[key]
	m.loggedSkip[key] = true
	m.mu.Unlock()

	if seen {
		m.logger.Debug("skipping preserved/managed hostname", slog.String("hostname", fqdn), slog.String("type", recordType))
	} else {
		m.logger.Info("skipping preserved/managed hostname", slog.String("hostname", fqdn), slog.String("type", recordType))
	}
}

// reconstructFQDN rebuilds the fully-qualified name for a provider record
// whose Name may be relative to zone, already fully qualified, or (rarely)
// duplicated against the zone by a buggy provider response.
func reconstructFQDN(name, zone string) string {
	if zone == "" {
		return name
	}
	if name == zone {
		return name
	}
	if strings.HasSuffix(name, "."+zone) {
		if dup := zone + "." + zone; strings.HasSuffix(name, "."+dup) {
			return strings.TrimSuffix(name, "."+zone)
		}
		return name
	}
	return name + "." + zone
}
