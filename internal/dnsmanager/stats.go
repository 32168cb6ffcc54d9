package dnsmanager

import (
	"fmt"
	"time"
)

// Stats accumulates the outcome counts for one processHostnames run.
type Stats struct {
	Created  int
	Updated  int
	UpToDate int
	Errors   int
	Total    int
}

func (s Stats) String() string {
	return fmt.Sprintf("created=%d updated=%d upToDate=%d errors=%d total=%d",
		s.Created, s.Updated, s.UpToDate, s.Errors, s.Total)
}

// RecordsUpdated is the payload published on bus.TopicDNSRecordsUpdated after
// a processHostnames run.
type RecordsUpdated struct {
	Stats              Stats
	ProcessedHostnames []string
}

// RecordDeleted is the payload published on bus.TopicDNSRecordDeleted for
// every record cleanupOrphanedRecords actually removes.
type RecordDeleted struct {
	Provider   string
	Zone       string
	Hostname   string
	RecordType string
}

// RecordChanged is the payload published on bus.TopicDNSRecordCreated and
// bus.TopicDNSRecordUpdated for every individual record ensure outcome.
// Source distinguishes where the change originated, letting a subscriber
// (internal/activitylog) pick the right Activity Entry kind: "discovered"
// (workload-driven, via ProcessHostnames), "managed" (an operator-configured
// ManagedRecord, via ProcessManagedHostnames), or "adopted" (a pre-existing
// provider record folded into tracking on first observation).
type RecordChanged struct {
	Provider   string
	Zone       string
	Hostname   string
	RecordType string
	Source     string
}

// CleanupSummary is the one-line result of a cleanupOrphanedRecords run.
type CleanupSummary struct {
	NewlyMarked      int
	DeletedAfterGrace int
	Reactivated      int
}

func (s CleanupSummary) String() string {
	return fmt.Sprintf("newlyMarked=%d deletedAfterGrace=%d reactivated=%d",
		s.NewlyMarked, s.DeletedAfterGrace, s.Reactivated)
}

// cleanupDebounce is the minimum interval between two cleanupOrphanedRecords
// runs; a run that arrives sooner is a no-op.
const cleanupDebounce = 3 * time.Second
