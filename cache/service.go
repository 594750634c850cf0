package cache

// SubscriberFunc receives the new entry state for a key after every store
// write. present is false when the key was removed; the entry then carries
// only the key.
type SubscriberFunc func(entry Entry, present bool)

// Store is the single shared mutable resource of the engine. Every cache
// write funnels through it, and every write notifies subscribers of the
// affected keys. All operations are synchronous and atomic from the caller's
// perspective: a batched write completes all entry updates before any
// subscriber fires, so observers never see a half-updated cross-entity state.
//
// The store holds no network or business logic.
type Store interface {
	// Get returns the entry for key, if one exists.
	Get(key QueryKey) (Entry, bool)

	// Set creates or replaces the entry for key, clears any recorded error,
	// stamps LastUpdated, and notifies subscribers.
	Set(key QueryKey, value any, status Status)

	// SetError marks the entry StatusError with the given cause, preserving
	// the previous value, and notifies subscribers. Creates the entry if absent.
	SetError(key QueryKey, err error)

	// SetStatus changes only the status of an existing entry and notifies
	// subscribers. Returns false (and does nothing) when no entry exists.
	SetStatus(key QueryKey, status Status) bool

	// SetBatch applies every write as one atomic update, then notifies
	// subscribers of each touched key in write order.
	SetBatch(writes []Write)

	// Remove deletes the entry and notifies subscribers with present=false.
	Remove(key QueryKey)

	// Snapshot captures the current state of the given keys. Pure read.
	Snapshot(keys []QueryKey) Snapshot

	// Restore overwrites each snapshotted key with its captured state (or
	// removes it, if it did not exist), as one atomic batch.
	Restore(snap Snapshot)

	// Subscribe registers fn for the key and returns its unsubscribe func.
	// Callbacks for one key fire synchronously in subscription order.
	Subscribe(key QueryKey, fn SubscriberFunc) func()

	// SubscriberCount returns the number of active subscriptions for key.
	SubscriberCount(key QueryKey) int

	// Keys returns every resident key. Used by prefix-based invalidation.
	Keys() []QueryKey

	// Len returns the number of resident entries.
	Len() int

	// Close stops background maintenance. The store remains usable for
	// synchronous operations after Close.
	Close() error
}
