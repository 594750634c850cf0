package resourcecache

import (
	"context"
	"log/slog"
	"strings"

	"github.com/AryanKumar02/HomeIQ-sub001/cache"
)

// Invalidator marks cached keys stale after a mutation elsewhere affected
// them. Keys with an active subscriber are refetched immediately through the
// executor (bypassing the freshness check); keys nobody watches stay stale
// until the next read. Invalidation is idempotent: invalidating a key twice
// settles to the same cache state as once.
type Invalidator struct {
	store cache.Store
	exec  *Executor
	log   *slog.Logger
}

// NewInvalidator builds an invalidator over the store and executor.
func NewInvalidator(store cache.Store, exec *Executor, log *slog.Logger) *Invalidator {
	if log == nil {
		log = slog.Default()
	}
	return &Invalidator{store: store, exec: exec, log: log}
}

// Invalidate marks each key stale. Keys with no resident entry are skipped;
// the next read fetches them anyway.
func (inv *Invalidator) Invalidate(keys ...cache.QueryKey) {
	for _, key := range keys {
		inv.one(key)
	}
}

// InvalidateMatching invalidates every resident key whose canonical form
// starts with one of the prefixes. Cross-entity rules are declared as
// prefixes (e.g. all tenant lists) so related views stay correct without
// enumerating every filter variant.
func (inv *Invalidator) InvalidateMatching(prefixes ...string) {
	if len(prefixes) == 0 {
		return
	}
	for _, key := range inv.store.Keys() {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key.Canonical(), prefix) {
				inv.one(key)
				break
			}
		}
	}
}

func (inv *Invalidator) one(key cache.QueryKey) {
	if key.IsZero() {
		return
	}
	if _, ok := inv.store.Get(key); !ok {
		return
	}

	// Any in-flight response for this key is now stale data.
	inv.exec.Supersede(key)
	inv.store.SetStatus(key, cache.StatusStale)

	if inv.store.SubscriberCount(key) == 0 {
		return
	}
	go func() {
		if _, err := inv.exec.Refetch(context.Background(), key); err != nil {
			inv.log.Debug("invalidation refetch failed", "key", key.Canonical(), "error", err)
		}
	}()
}
