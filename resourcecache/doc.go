// Package resourcecache is the policy layer of the cache engine: it executes
// queries against the store with request coalescing and freshness windows,
// runs mutations through an optimistic snapshot/apply/commit-or-rollback
// lifecycle, and invalidates dependent keys after commits.
//
// # Layers
//
//   - Executor: the read path. Query serves fresh entries straight from the
//     store, coalesces concurrent fetches for one key into a single remote
//     call, and discards responses superseded by an invalidation.
//   - Mutation / Coordinator: the write path. A Mutation is built once per
//     user action and carries its target keys, pure optimistic-apply and
//     reconcile functions, and the keys it invalidates on success.
//   - Invalidator: marks keys stale, and refetches immediately when a
//     subscriber is watching the key.
//   - Resource: a typed facade that wires all of the above for one remote
//     collection (properties, units, tenants), keeping every cached list and
//     the detail entry for an item coherent through each mutation.
//
// # Consistency rules
//
// Optimistic applies on overlapping keys are serialized: the second mutation
// always sees the cache state the first one left behind. A failed mutation
// restores its pre-apply snapshot, but only for keys that still hold its own
// optimistic values; keys a newer mutation has committed over are left alone.
// A commit writes the detail entry and every affected list entry in one
// atomic batch, so observers never see the two diverge.
package resourcecache
