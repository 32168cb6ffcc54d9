// Package tracker implements the durable record tracker: a persisted index of
// every DNS record this controller has created, plus the preserved/managed
// hostname lists that opt records out of orphan cleanup.
//
// The store is a single JSON document written atomically (temp file, fsync,
// rename) so a crash mid-write never leaves a half-written or corrupt file
// behind. All mutating methods persist before returning.
package tracker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/maxfield-allison/dnscontroller/pkg/provider"
)

// Key identifies a record by the logical coordinates the reconciler reasons
// about, independent of the provider-assigned record id.
type Key struct {
	Provider string
	Zone     string
	Name     string
	Type     string
}

func (k Key) string() string {
	return strings.ToLower(k.Provider) + "/" + strings.ToLower(k.Zone) + "/" +
		strings.ToLower(k.Name) + "/" + strings.ToLower(k.Type)
}

// Entry is a read-only view of one tracked record, returned by AllTracked.
type Entry struct {
	Key       Key
	ID        string
	CreatedAt time.Time
	OrphanedAt *time.Time
}

type record struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	OrphanedAt *time.Time `json:"orphanedAt,omitempty"`

	// keyed fields are duplicated into the persisted form (see persistedRecord)
	// rather than reconstructed from the map key, so the file stays
	// self-describing even if the key-join separator ever changes.
	key Key
}

type persistedRecord struct {
	Provider   string     `json:"provider"`
	Zone       string     `json:"zone"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	OrphanedAt *time.Time `json:"orphanedAt,omitempty"`
}

type persistedState struct {
	Records            []persistedRecord `json:"records"`
	PreservedHostnames []string          `json:"preservedHostnames"`
	ManagedHostnames   []string          `json:"managedHostnames"`
}

// Tracker is the durable record index. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger

	records map[string]*record

	preservedHostnames []string
	managedHostnames   []string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithPreservedHostnames seeds the preserved-hostname list (exact or
// "*.suffix" entries). Values loaded from an existing store take priority;
// this option only applies when the store is freshly created.
func WithPreservedHostnames(hostnames []string) Option {
	return func(t *Tracker) {
		t.preservedHostnames = append([]string(nil), hostnames...)
	}
}

// WithManagedHostnames seeds the managed-hostname list. Same precedence rule
// as WithPreservedHostnames.
func WithManagedHostnames(hostnames []string) Option {
	return func(t *Tracker) {
		t.managedHostnames = append([]string(nil), hostnames...)
	}
}

// New loads the tracker state from path, creating an empty store if the file
// does not yet exist. path's parent directory must already exist.
func New(path string, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		path:    path,
		logger:  slog.Default(),
		records: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(t)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.logger.Info("tracker store not found, starting empty", slog.String("path", path))
			return t, nil
		}
		return nil, fmt.Errorf("reading tracker store %s: %w", path, err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing tracker store %s: %w", path, err)
	}

	for _, pr := range state.Records {
		k := Key{Provider: pr.Provider, Zone: pr.Zone, Name: pr.Name, Type: pr.Type}
		t.records[k.string()] = &record{
			ID:         pr.ID,
			CreatedAt:  pr.CreatedAt,
			OrphanedAt: pr.OrphanedAt,
			key:        k,
		}
	}
	t.preservedHostnames = state.PreservedHostnames
	t.managedHostnames = state.ManagedHostnames

	t.logger.Info("tracker store loaded",
		slog.String("path", path),
		slog.Int("tracked", len(t.records)),
	)
	return t, nil
}

// IsTracked reports whether key is present in the index.
func (t *Tracker) IsTracked(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[key.string()]
	return ok
}

// Track records key as created with the given provider-assigned id.
func (t *Tracker) Track(key Key, id string) error {
	t.mu.Lock()
	t.records[key.string()] = &record{ID: id, CreatedAt: time.Now(), key: key}
	t.mu.Unlock()
	return t.save()
}

// UpdateID rewrites the provider-assigned id for an already-tracked key
// (the provider may assign a new id across a recreate).
func (t *Tracker) UpdateID(key Key, newID string) error {
	t.mu.Lock()
	r, ok := t.records[key.string()]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("tracker: key %v is not tracked", key)
	}
	r.ID = newID
	t.mu.Unlock()
	return t.save()
}

// Untrack removes key from the index entirely.
func (t *Tracker) Untrack(key Key) error {
	t.mu.Lock()
	delete(t.records, key.string())
	t.mu.Unlock()
	return t.save()
}

// MarkOrphan flags key as an orphan candidate, starting the grace-period
// clock. Returns an error if key is not tracked.
func (t *Tracker) MarkOrphan(key Key) error {
	t.mu.Lock()
	r, ok := t.records[key.string()]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("tracker: key %v is not tracked", key)
	}
	now := time.Now()
	r.OrphanedAt = &now
	t.mu.Unlock()
	return t.save()
}

// IsOrphan reports whether key is currently marked as an orphan candidate.
func (t *Tracker) IsOrphan(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[key.string()]
	return ok && r.OrphanedAt != nil
}

// OrphanedAt returns the time key was marked orphan, if it is currently
// marked.
func (t *Tracker) OrphanedAt(key Key) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[key.string()]
	if !ok || r.OrphanedAt == nil {
		return time.Time{}, false
	}
	return *r.OrphanedAt, true
}

// ClearOrphan removes the orphan mark from key (the hostname reactivated
// before the grace period elapsed).
func (t *Tracker) ClearOrphan(key Key) error {
	t.mu.Lock()
	r, ok := t.records[key.string()]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("tracker: key %v is not tracked", key)
	}
	if r.OrphanedAt == nil {
		t.mu.Unlock()
		return nil
	}
	r.OrphanedAt = nil
	t.mu.Unlock()
	return t.save()
}

// ShouldPreserve reports whether fqdn matches an entry in the preserved
// hostname list: an exact match, or a "*.suffix" entry whose suffix fqdn
// falls under.
func (t *Tracker) ShouldPreserve(fqdn string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return matchesHostnameList(t.preservedHostnames, fqdn)
}

// IsManagedHostname reports whether fqdn appears in the managed hostname
// list, using the same exact-or-"*.suffix" matching as ShouldPreserve.
func (t *Tracker) IsManagedHostname(fqdn string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return matchesHostnameList(t.managedHostnames, fqdn)
}

// ManagedHostnames returns a copy of the configured managed hostname list.
func (t *Tracker) ManagedHostnames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.managedHostnames...)
}

func matchesHostnameList(list []string, fqdn string) bool {
	fqdn = strings.ToLower(fqdn)
	for _, entry := range list {
		entry = strings.ToLower(entry)
		if suffix, ok := strings.CutPrefix(entry, "*."); ok {
			if fqdn == suffix || strings.HasSuffix(fqdn, "."+suffix) {
				return true
			}
			continue
		}
		if fqdn == entry {
			return true
		}
	}
	return false
}

// AllTracked returns a snapshot of every tracked entry.
func (t *Tracker) AllTracked() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, Entry{
			Key:        r.key,
			ID:         r.ID,
			CreatedAt:  r.CreatedAt,
			OrphanedAt: r.OrphanedAt,
		})
	}
	return out
}

// AdoptLegacy tracks key as if freshly created when comment carries the
// legacy marker for controllerName and key is not already tracked. Returns
// true if adoption happened. This is how records created by a pre-tracker
// install get folded into the index on first observation instead of being
// treated as unrelated/orphaned.
func (t *Tracker) AdoptLegacy(key Key, id string, comment *string, controllerName string) bool {
	if comment == nil || *comment != provider.LegacyMarkerComment(controllerName) {
		return false
	}
	t.mu.Lock()
	if _, ok := t.records[key.string()]; ok {
		t.mu.Unlock()
		return false
	}
	t.records[key.string()] = &record{ID: id, CreatedAt: time.Now(), key: key}
	t.mu.Unlock()

	if err := t.save(); err != nil {
		t.logger.Error("failed to persist legacy adoption",
			slog.Any("key", key), slog.String("error", err.Error()))
	}
	t.logger.Info("adopted legacy record", slog.String("name", key.Name), slog.String("type", key.Type))
	return true
}

// save writes the current state to disk atomically: write to a temp file in
// the same directory, fsync, then rename over the destination.
func (t *Tracker) save() error {
	t.mu.Lock()
	state := persistedState{
		Records:            make([]persistedRecord, 0, len(t.records)),
		PreservedHostnames: t.preservedHostnames,
		ManagedHostnames:   t.managedHostnames,
	}
	for _, r := range t.records {
		state.Records = append(state.Records, persistedRecord{
			Provider:   r.key.Provider,
			Zone:       r.key.Zone,
			Name:       r.key.Name,
			Type:       r.key.Type,
			ID:         r.ID,
			CreatedAt:  r.CreatedAt,
			OrphanedAt: r.OrphanedAt,
		})
	}
	path := t.path
	t.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tracker store: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tracker-*.tmp")
	if err != nil {
		return fmt.Errorf("creating tracker temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing tracker temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing tracker temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing tracker temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming tracker store into place: %w", err)
	}
	return nil
}
