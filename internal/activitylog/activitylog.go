// Package activitylog maintains an append-only, bounded-retention record of
// DNS changes the controller has made, for observability and the admin
// surface. Entries are derived from bus events, never written directly by
// reconciliation code.
package activitylog

import (
	"log/slog"
	"sync"
	"time"

	"github.com/maxfield-allison/dnscontroller/internal/bus"
	"github.com/maxfield-allison/dnscontroller/internal/dnsmanager"
)

// Kind is the type of change an Activity Entry records.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
	KindManaged Kind = "managed"
	KindTracked Kind = "tracked"
)

// Entry is one append-only Activity Log record.
type Entry struct {
	ID         uint64
	Kind       Kind
	RecordType string
	Hostname   string
	Timestamp  time.Time
	Details    string
	Source     string
}

// defaultCapacity bounds retention when no WithCapacity option is given.
const defaultCapacity = 1000

// Log is a ring buffer of Activity Entries, subscribed to the
// DNS_RECORD_CREATED, DNS_RECORD_UPDATED and DNS_RECORD_DELETED bus topics.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	nextID   uint64
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithCapacity overrides the default bounded-retention size.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Log and subscribes it to the relevant bus topics.
func New(b *bus.Bus, opts ...Option) *Log {
	l := &Log{
		capacity: defaultCapacity,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	b.Subscribe(bus.TopicDNSRecordCreated, func(p any) error { return l.handleRecordChanged(KindCreated, p) })
	b.Subscribe(bus.TopicDNSRecordUpdated, func(p any) error { return l.handleRecordChanged(KindUpdated, p) })
	b.Subscribe(bus.TopicDNSRecordDeleted, l.handleRecordDeleted)

	return l
}

func (l *Log) handleRecordChanged(kind Kind, payload any) error {
	rc, ok := payload.(dnsmanager.RecordChanged)
	if !ok {
		return nil
	}

	switch rc.Source {
	case "managed":
		kind = KindManaged
	case "adopted":
		kind = KindTracked
	}

	l.append(Entry{
		Kind:       kind,
		RecordType: rc.RecordType,
		Hostname:   rc.Hostname,
		Details:    "provider=" + rc.Provider + " zone=" + rc.Zone,
		Source:     rc.Source,
	})
	return nil
}

func (l *Log) handleRecordDeleted(payload any) error {
	rd, ok := payload.(dnsmanager.RecordDeleted)
	if !ok {
		return nil
	}

	l.append(Entry{
		Kind:       KindDeleted,
		RecordType: rd.RecordType,
		Hostname:   rd.Hostname,
		Details:    "provider=" + rd.Provider + " zone=" + rd.Zone,
		Source:     "cleanup",
	})
	return nil
}

func (l *Log) append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	e.ID = l.nextID
	e.Timestamp = l.now()

	l.entries = append(l.entries, e)
	if len(l.entries) > l.capacity {
		drop := len(l.entries) - l.capacity
		l.entries = l.entries[drop:]
	}

	l.logger.Debug("activity logged",
		slog.String("kind", string(e.Kind)),
		slog.String("hostname", e.Hostname),
		slog.String("type", e.RecordType),
	)
}

// Recent returns up to n most recent entries, newest last. n<=0 returns all
// retained entries.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n >= len(l.entries) {
		out := make([]Entry, len(l.entries))
		copy(out, l.entries)
		return out
	}

	start := len(l.entries) - n
	out := make([]Entry, n)
	copy(out, l.entries[start:])
	return out
}

// Len returns the number of entries currently retained.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
