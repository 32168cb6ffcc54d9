package provider

import (
	"context"
	"sync"
)

// ZoneCache holds the in-memory snapshot of a provider's zone that the
// batch-upsert algorithm reads from and mutates in place, so a run of
// BatchEnsureRecords only needs a single List call no matter how many
// RecordConfigs it processes.
type ZoneCache struct {
	provider Provider

	mu      sync.Mutex
	loaded  bool
	records map[string]Record // keyed by ID
}

// NewZoneCache creates an empty cache backed by p.
func NewZoneCache(p Provider) *ZoneCache {
	return &ZoneCache{provider: p, records: make(map[string]Record)}
}

// fromCache returns the cached record set, refreshing from the provider
// first if forceRefresh is set or the cache has never been loaded.
func (z *ZoneCache) fromCache(ctx context.Context, forceRefresh bool) ([]Record, error) {
	z.mu.Lock()
	needsRefresh := forceRefresh || !z.loaded
	z.mu.Unlock()

	if needsRefresh {
		if err := z.refresh(ctx); err != nil {
			return nil, err
		}
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	out := make([]Record, 0, len(z.records))
	for _, r := range z.records {
		out = append(out, r)
	}
	return out, nil
}

// refresh reloads the cache from the provider, replacing its contents.
func (z *ZoneCache) refresh(ctx context.Context) error {
	records, err := z.provider.List(ctx)
	if err != nil {
		return err
	}

	z.mu.Lock()
	defer z.mu.Unlock()
	z.records = make(map[string]Record, len(records))
	for _, r := range records {
		z.records[r.ID] = r
	}
	z.loaded = true
	return nil
}

// put inserts or replaces a record by ID.
func (z *ZoneCache) put(r Record) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.records[r.ID] = r
}

// remove deletes a record by ID.
func (z *ZoneCache) remove(id string) {
	z.mu.Lock()
	defer z.mu.Unlock()
	delete(z.records, id)
}

// findByNameType returns the first cached record matching name and rt, if any.
func (z *ZoneCache) findByNameType(name string, rt RecordType) (Record, bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	for _, r := range z.records {
		if r.Name == name && r.Type == rt {
			return r, true
		}
	}
	return Record{}, false
}
