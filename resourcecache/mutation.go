package resourcecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/AryanKumar02/HomeIQ-sub001/cache"
)

// ApplyFunc produces the optimistic value for one target key from the value
// currently cached under it. Returning false leaves the key untouched (and
// excludes it from rollback). Must be pure: no store access, no mutation of
// current.
type ApplyFunc func(key cache.QueryKey, current any, present bool) (any, bool)

// ReconcileFunc replaces the optimistic value for one target key with a value
// derived from the server's authoritative response. Returning false leaves
// the key as-is. Must be pure.
type ReconcileFunc func(key cache.QueryKey, current any, present bool, response any) (any, bool)

// RemoteFunc performs the single asynchronous step of a mutation: the call to
// the remote collaborator.
type RemoteFunc func(ctx context.Context) (any, error)

// MutationState tracks the mutation lifecycle. Committed and RolledBack are
// terminal.
type MutationState string

const (
	StatePending    MutationState = "pending"
	StateApplied    MutationState = "optimistic-applied"
	StateCommitted  MutationState = "committed"
	StateRolledBack MutationState = "rolled-back"
)

// ErrMutationReused is returned when Execute is called on a mutation that has
// already run. Mutations are created per user action and never reused.
var ErrMutationReused = errors.New("resourcecache: mutation already executed")

// MutationError wraps a remote failure after rollback has completed. The
// caller never observes a dangling optimistic state alongside this error.
type MutationError struct {
	MutationID string
	Err        error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("resourcecache: mutation %s: %v", e.MutationID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Mutation is one create/update/delete against the remote collaborator,
// described as data: target keys, pure apply/reconcile functions, and the
// invalidation set. Build one with NewMutation.
type Mutation struct {
	id                 string
	targets            []cache.QueryKey
	apply              ApplyFunc
	remote             RemoteFunc
	reconcile          ReconcileFunc
	invalidates        []cache.QueryKey
	invalidatePrefixes []string
	removes            []cache.QueryKey

	mu    sync.Mutex
	state MutationState
}

// ID returns the mutation's unique id.
func (m *Mutation) ID() string { return m.id }

// State returns the current lifecycle state.
func (m *Mutation) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mutation) transition(from, to MutationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != from {
		return fmt.Errorf("%w: state %s", ErrMutationReused, m.state)
	}
	m.state = to
	return nil
}

func (m *Mutation) setState(to MutationState) {
	m.mu.Lock()
	m.state = to
	m.mu.Unlock()
}

// MutationBuilder assembles a Mutation. Remote is required; everything else
// is optional (a mutation with no targets is a plain remote call followed by
// invalidation).
type MutationBuilder struct {
	m *Mutation
}

// NewMutation starts a builder with a fresh mutation id.
func NewMutation() *MutationBuilder {
	return &MutationBuilder{m: &Mutation{
		id:    uuid.NewString(),
		state: StatePending,
	}}
}

// Targets sets the keys the optimistic apply and reconcile run against.
// Duplicates are dropped.
func (b *MutationBuilder) Targets(keys ...cache.QueryKey) *MutationBuilder {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k.Canonical()]; dup || k.IsZero() {
			continue
		}
		seen[k.Canonical()] = struct{}{}
		b.m.targets = append(b.m.targets, k)
	}
	return b
}

// Apply sets the optimistic apply function.
func (b *MutationBuilder) Apply(fn ApplyFunc) *MutationBuilder {
	b.m.apply = fn
	return b
}

// Remote sets the remote call.
func (b *MutationBuilder) Remote(fn RemoteFunc) *MutationBuilder {
	b.m.remote = fn
	return b
}

// Reconcile sets the reconcile function applied on commit.
func (b *MutationBuilder) Reconcile(fn ReconcileFunc) *MutationBuilder {
	b.m.reconcile = fn
	return b
}

// Invalidates declares exact keys invalidated after a successful commit.
func (b *MutationBuilder) Invalidates(keys ...cache.QueryKey) *MutationBuilder {
	b.m.invalidates = append(b.m.invalidates, keys...)
	return b
}

// InvalidatesMatching declares canonical-key prefixes invalidated after a
// successful commit. This is how cross-entity dependencies are expressed.
func (b *MutationBuilder) InvalidatesMatching(prefixes ...string) *MutationBuilder {
	b.m.invalidatePrefixes = append(b.m.invalidatePrefixes, prefixes...)
	return b
}

// RemovesOnCommit declares keys whose entries are deleted when the mutation
// commits, e.g. the detail entry of a deleted tenant.
func (b *MutationBuilder) RemovesOnCommit(keys ...cache.QueryKey) *MutationBuilder {
	b.m.removes = append(b.m.removes, keys...)
	return b
}

// Build validates and returns the mutation.
func (b *MutationBuilder) Build() (*Mutation, error) {
	if b.m.remote == nil {
		return nil, &cache.ConfigError{Field: "Remote", Message: "mutation requires a remote call"}
	}
	return b.m, nil
}

// stripeCount sizes the coordinator's lock table. Keys map to stripes by
// hash, so mutations on overlapping keys serialize while disjoint ones run
// independently.
const stripeCount = 64

// Coordinator drives mutations through snapshot, optimistic apply, remote
// call, and commit or rollback.
type Coordinator struct {
	store       cache.Store
	invalidator *Invalidator
	log         *slog.Logger
	stripes     [stripeCount]sync.Mutex
}

// NewCoordinator builds a coordinator. The invalidator may be nil; committed
// mutations then skip dependent-key invalidation.
func NewCoordinator(store cache.Store, invalidator *Invalidator, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{store: store, invalidator: invalidator, log: log}
}

// Execute runs the mutation to a terminal state and returns the remote
// response. On remote failure the optimistic values are rolled back before
// the error is returned, wrapped in *MutationError.
func (c *Coordinator) Execute(ctx context.Context, m *Mutation) (any, error) {
	if err := m.transition(StatePending, StateApplied); err != nil {
		return nil, err
	}

	snap, optimistic := c.applyOptimistic(m)

	response, err := m.remote(ctx)
	if err != nil {
		c.rollback(m, snap, optimistic)
		m.setState(StateRolledBack)
		return nil, &MutationError{MutationID: m.id, Err: err}
	}

	c.commit(m, response)
	m.setState(StateCommitted)

	if c.invalidator != nil {
		c.invalidator.Invalidate(m.invalidates...)
		c.invalidator.InvalidateMatching(m.invalidatePrefixes...)
	}
	return response, nil
}

// applyOptimistic snapshots the targets and writes the optimistic values as
// one batch, all under the targets' stripe locks. It returns the snapshot and
// the encoded optimistic value per touched key, which the rollback guard
// compares against later.
func (c *Coordinator) applyOptimistic(m *Mutation) (cache.Snapshot, map[string][]byte) {
	unlock := c.lockStripes(m.targets)
	defer unlock()

	snap := c.store.Snapshot(m.targets)
	optimistic := make(map[string][]byte)
	if m.apply == nil {
		return snap, optimistic
	}

	var writes []cache.Write
	for _, se := range snap.Entries {
		value, ok := m.apply(se.Key, se.Entry.Value, se.Existed)
		if !ok {
			continue
		}
		writes = append(writes, cache.Write{Key: se.Key, Value: value, Status: cache.StatusFresh})
		if encoded, err := cache.EncodeValue(value); err == nil {
			optimistic[se.Key.Canonical()] = encoded
		} else {
			c.log.Debug("optimistic value not encodable, rollback guard disabled for key",
				"mutation", m.id, "key", se.Key.Canonical(), "error", err)
			optimistic[se.Key.Canonical()] = nil
		}
	}
	c.store.SetBatch(writes)
	return snap, optimistic
}

// rollback restores the snapshot, but only for keys that still hold this
// mutation's own optimistic values. A key overwritten by a newer committed
// mutation is excluded so the rollback cannot clobber the newer data.
func (c *Coordinator) rollback(m *Mutation, snap cache.Snapshot, optimistic map[string][]byte) {
	unlock := c.lockStripes(m.targets)
	defer unlock()

	restore := snap.Subset(func(se cache.SnapshotEntry) bool {
		encoded, touched := optimistic[se.Key.Canonical()]
		if !touched {
			// Never optimistically written by this mutation; nothing to undo.
			return false
		}
		if encoded == nil {
			// Guard disabled for this key; restore unconditionally.
			return true
		}
		current, present := c.store.Get(se.Key)
		if !present {
			c.log.Debug("rollback skipped, entry gone", "mutation", m.id, "key", se.Key.Canonical())
			return false
		}
		currentEncoded, err := cache.EncodeValue(current.Value)
		if err != nil || !bytes.Equal(currentEncoded, encoded) {
			c.log.Debug("rollback skipped, newer value present", "mutation", m.id, "key", se.Key.Canonical())
			return false
		}
		return true
	})
	c.store.Restore(restore)
}

// commit reconciles every target with the server response and applies the
// commit-time removals, all as one atomic batch so list and detail entries
// for the same item never diverge.
func (c *Coordinator) commit(m *Mutation, response any) {
	unlock := c.lockStripes(append(append([]cache.QueryKey{}, m.targets...), m.removes...))
	defer unlock()

	var writes []cache.Write
	if m.reconcile != nil {
		for _, key := range m.targets {
			current, present := c.store.Get(key)
			value, ok := m.reconcile(key, current.Value, present, response)
			if !ok {
				continue
			}
			writes = append(writes, cache.Write{Key: key, Value: value, Status: cache.StatusFresh})
		}
	}
	for _, key := range m.removes {
		writes = append(writes, cache.Write{Key: key, Remove: true})
	}
	c.store.SetBatch(writes)
}

// lockStripes acquires the stripe locks covering the keys in ascending stripe
// order and returns the matching unlock.
func (c *Coordinator) lockStripes(keys []cache.QueryKey) func() {
	seen := make(map[int]struct{}, len(keys))
	indices := make([]int, 0, len(keys))
	for _, k := range keys {
		idx := int(k.Hash() % stripeCount)
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		c.stripes[idx].Lock()
	}
	return func() {
		for i := len(indices) - 1; i >= 0; i-- {
			c.stripes[indices[i]].Unlock()
		}
	}
}
