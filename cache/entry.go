package cache

import "time"

// Status describes an entry's position in the fetch lifecycle.
type Status string

const (
	// StatusIdle marks an entry that exists but has never been fetched.
	StatusIdle Status = "idle"
	// StatusFetching marks an entry with a fetch in flight. Ownership of the
	// fetching state is exclusive: at most one fetch per key may hold it.
	StatusFetching Status = "fetching"
	// StatusFresh marks an entry whose value came from a settled fetch or a
	// committed mutation.
	StatusFresh Status = "fresh"
	// StatusStale marks an entry flagged by the invalidation engine; its value
	// is still readable but the next read must refetch.
	StatusStale Status = "stale"
	// StatusError marks an entry whose last fetch failed; Err holds the cause.
	StatusError Status = "error"
)

// Entry is one cached value plus its metadata. Exactly one Entry exists per
// distinct QueryKey; the store enforces that uniqueness.
type Entry struct {
	Key         QueryKey
	Value       any
	Status      Status
	LastUpdated time.Time
	Err         error
}

// Age returns how long ago the entry was last written.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.LastUpdated)
}

// FreshWithin reports whether the entry is fresh and younger than staleTime.
func (e Entry) FreshWithin(now time.Time, staleTime time.Duration) bool {
	return e.Status == StatusFresh && e.Age(now) < staleTime
}

// Write describes one element of a batched store update. When Remove is set
// the entry is deleted and the remaining fields are ignored.
type Write struct {
	Key    QueryKey
	Value  any
	Status Status
	Err    error
	Remove bool
}

// SnapshotEntry captures the state of one key at snapshot time. Existed is
// false when the key had no entry, so restore knows to delete rather than
// write back.
type SnapshotEntry struct {
	Key     QueryKey
	Existed bool
	Entry   Entry
}

// Snapshot is an immutable capture of one or more entries, taken before a
// mutation's optimistic apply. It is owned by exactly one mutation: discarded
// on commit, restored on rollback.
type Snapshot struct {
	TakenAt time.Time
	Entries []SnapshotEntry
}

// Subset returns a snapshot containing only the entries whose keys pass keep.
// The mutation coordinator uses this to exclude keys that a newer mutation
// has committed over from a rollback.
func (s Snapshot) Subset(keep func(SnapshotEntry) bool) Snapshot {
	out := Snapshot{TakenAt: s.TakenAt}
	for _, e := range s.Entries {
		if keep(e) {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}
