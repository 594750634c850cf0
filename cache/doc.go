// Package cache defines the core contracts for the HomeIQ client-side cache
// synchronization engine: query keys, cache entries, the store interface, and
// the value codec used for deep copies and bytewise comparison.
//
// # Overview
//
// The package exports the building blocks shared by every other layer:
//
//   - QueryKey: a canonical, structurally-comparable identifier for a cached read
//   - KeySerializer: builds stable key strings from resource/verb/arguments
//   - Entry: a cached value plus freshness metadata (status, timestamp, error)
//   - Store: the single shared mutable surface; all cache writes funnel through it
//   - Snapshot: an immutable capture of entries, used for mutation rollback
//
// The store implementation lives in internal/cacheinfra and is wired through
// pkg/di. Consumers read through the resourcecache package rather than talking
// to the store directly; the store's own API is deliberately free of network
// and business logic.
//
// # Query Keys
//
// Keys are built from a resource name, a verb, and optional arguments:
//
//	key := cache.NewKey("properties", "detail", "p1")
//	listKey := cache.NewKey("properties", "list", homeiq.PropertyFilter{Status: "available"})
//
// Two keys are equal iff their canonical serializations match. The canonical
// form is computed once at construction, so QueryKey values are immutable and
// usable as map keys. Serialization is deterministic across runs for basic
// types, slices, maps (sorted keys), structs, and time values; see
// key_serializer.go.
//
// # Value Ownership
//
// Values handed to and returned from the store are treated as immutable
// snapshots. Code that needs to derive a new value from a cached one must
// build a fresh value (Clone is provided for that) rather than mutating in
// place. The store never mutates stored values.
//
// # Error Handling
//
// Read-path failures surface as *FetchError wrapping the underlying cause and
// carrying the affected key. Errors are local to the failing key; they never
// cascade to other entries.
package cache
