// Package cacheinfra holds the in-memory store backing the cache contracts.
// It owns entry storage, the subscriber registry, and the lazy GC sweep; the
// policy layers (query execution, mutation lifecycle, invalidation) live in
// resourcecache and only see the cache.Store interface.
package cacheinfra

import (
	"log/slog"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/AryanKumar02/HomeIQ-sub001/cache"
)

var _ cache.Store = (*MemoryStore)(nil)

// MemoryStore is the process-local cache.Store implementation. Entry writes
// take a store-wide mutex so batched updates are atomic; subscriber dispatch
// happens after the lock is released so callbacks may re-enter the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]cache.Entry

	subs *xsync.MapOf[string, *subscriberList]

	log        *slog.Logger
	entryTTL   time.Duration
	gcInterval time.Duration

	stop      chan struct{}
	closeOnce sync.Once
}

type subscriberList struct {
	mu   sync.Mutex
	gone bool
	next uint64
	subs []subscription
}

type subscription struct {
	id uint64
	fn cache.SubscriberFunc
}

type notification struct {
	entry   cache.Entry
	present bool
}

// NewMemoryStore builds a store from the engine configuration. The GC sweep
// starts only when cfg.GCInterval is positive.
func NewMemoryStore(cfg cache.Config) (*MemoryStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &MemoryStore{
		entries:    make(map[string]cache.Entry),
		subs:       xsync.NewMapOf[string, *subscriberList](),
		log:        log,
		entryTTL:   cfg.EntryTTL,
		gcInterval: cfg.GCInterval,
		stop:       make(chan struct{}),
	}

	if s.gcInterval > 0 {
		go s.sweepLoop()
	}
	return s, nil
}

// Get implements cache.Store.
func (s *MemoryStore) Get(key cache.QueryKey) (cache.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.entries[key.Canonical()]
	return ent, ok
}

// Set implements cache.Store.
func (s *MemoryStore) Set(key cache.QueryKey, value any, status cache.Status) {
	s.SetBatch([]cache.Write{{Key: key, Value: value, Status: status}})
}

// SetError implements cache.Store. The previous value is preserved so views
// can keep rendering the last good data next to the error.
func (s *MemoryStore) SetError(key cache.QueryKey, err error) {
	s.mu.Lock()
	prev := s.entries[key.Canonical()]
	ent := cache.Entry{
		Key:         key,
		Value:       prev.Value,
		Status:      cache.StatusError,
		LastUpdated: time.Now(),
		Err:         err,
	}
	s.entries[key.Canonical()] = ent
	s.mu.Unlock()

	s.notify([]notification{{entry: ent, present: true}})
}

// SetStatus implements cache.Store.
func (s *MemoryStore) SetStatus(key cache.QueryKey, status cache.Status) bool {
	s.mu.Lock()
	ent, ok := s.entries[key.Canonical()]
	if !ok {
		s.mu.Unlock()
		return false
	}
	ent.Status = status
	s.entries[key.Canonical()] = ent
	s.mu.Unlock()

	s.notify([]notification{{entry: ent, present: true}})
	return true
}

// SetBatch implements cache.Store. All writes land before any subscriber
// fires; notifications then go out in write order.
func (s *MemoryStore) SetBatch(writes []cache.Write) {
	if len(writes) == 0 {
		return
	}
	now := time.Now()

	notes := make([]notification, 0, len(writes))
	s.mu.Lock()
	for _, w := range writes {
		canonical := w.Key.Canonical()
		if w.Remove {
			delete(s.entries, canonical)
			notes = append(notes, notification{entry: cache.Entry{Key: w.Key}, present: false})
			continue
		}
		ent := cache.Entry{
			Key:         w.Key,
			Value:       w.Value,
			Status:      w.Status,
			LastUpdated: now,
			Err:         w.Err,
		}
		s.entries[canonical] = ent
		notes = append(notes, notification{entry: ent, present: true})
	}
	s.mu.Unlock()

	s.notify(notes)
}

// Remove implements cache.Store.
func (s *MemoryStore) Remove(key cache.QueryKey) {
	s.SetBatch([]cache.Write{{Key: key, Remove: true}})
}

// Snapshot implements cache.Store. Values are not copied: the engine treats
// cached values as immutable, so the captured references stay byte-exact.
func (s *MemoryStore) Snapshot(keys []cache.QueryKey) cache.Snapshot {
	snap := cache.Snapshot{
		TakenAt: time.Now(),
		Entries: make([]cache.SnapshotEntry, 0, len(keys)),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range keys {
		ent, ok := s.entries[key.Canonical()]
		snap.Entries = append(snap.Entries, cache.SnapshotEntry{
			Key:     key,
			Existed: ok,
			Entry:   ent,
		})
	}
	return snap
}

// Restore implements cache.Store. Each snapshotted key is written back
// verbatim, LastUpdated included; keys that did not exist are removed. A
// snapshot entry with a zero key means the snapshot was built outside the
// store, which is an invariant violation, so it panics rather than restoring
// garbage.
func (s *MemoryStore) Restore(snap cache.Snapshot) {
	if len(snap.Entries) == 0 {
		return
	}

	notes := make([]notification, 0, len(snap.Entries))
	s.mu.Lock()
	for _, se := range snap.Entries {
		if se.Key.IsZero() {
			s.mu.Unlock()
			panic("cacheinfra: restore of snapshot entry with zero key")
		}
		if !se.Existed {
			delete(s.entries, se.Key.Canonical())
			notes = append(notes, notification{entry: cache.Entry{Key: se.Key}, present: false})
			continue
		}
		s.entries[se.Key.Canonical()] = se.Entry
		notes = append(notes, notification{entry: se.Entry, present: true})
	}
	s.mu.Unlock()

	s.notify(notes)
}

// Subscribe implements cache.Store.
func (s *MemoryStore) Subscribe(key cache.QueryKey, fn cache.SubscriberFunc) func() {
	canonical := key.Canonical()

	for {
		list, _ := s.subs.LoadOrCompute(canonical, func() *subscriberList {
			return &subscriberList{}
		})

		list.mu.Lock()
		if list.gone {
			// Lost a race with the last unsubscribe; the registry slot was
			// dropped, so fetch a fresh one.
			list.mu.Unlock()
			continue
		}
		list.next++
		id := list.next
		list.subs = append(list.subs, subscription{id: id, fn: fn})
		list.mu.Unlock()

		return func() { s.unsubscribe(canonical, list, id) }
	}
}

func (s *MemoryStore) unsubscribe(canonical string, list *subscriberList, id uint64) {
	list.mu.Lock()
	defer list.mu.Unlock()
	for i, sub := range list.subs {
		if sub.id == id {
			list.subs = append(list.subs[:i], list.subs[i+1:]...)
			break
		}
	}
	if len(list.subs) == 0 && !list.gone {
		list.gone = true
		s.subs.Delete(canonical)
	}
}

// SubscriberCount implements cache.Store.
func (s *MemoryStore) SubscriberCount(key cache.QueryKey) int {
	list, ok := s.subs.Load(key.Canonical())
	if !ok {
		return 0
	}
	list.mu.Lock()
	defer list.mu.Unlock()
	return len(list.subs)
}

// Keys implements cache.Store.
func (s *MemoryStore) Keys() []cache.QueryKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]cache.QueryKey, 0, len(s.entries))
	for _, ent := range s.entries {
		out = append(out, ent.Key)
	}
	return out
}

// Len implements cache.Store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close implements cache.Store.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return nil
}

// notify dispatches outside the entry lock so callbacks may call back into
// the store. Per-key subscriber order is subscription order.
func (s *MemoryStore) notify(notes []notification) {
	for _, n := range notes {
		list, ok := s.subs.Load(n.entry.Key.Canonical())
		if !ok {
			continue
		}
		list.mu.Lock()
		fns := make([]cache.SubscriberFunc, len(list.subs))
		for i, sub := range list.subs {
			fns[i] = sub.fn
		}
		list.mu.Unlock()

		for _, fn := range fns {
			fn(n.entry, n.present)
		}
	}
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep evicts entries that have no subscribers and have not been written
// within the entry TTL. Eviction of subscriber-less entries needs no
// notification.
func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for canonical, ent := range s.entries {
		if now.Sub(ent.LastUpdated) < s.entryTTL {
			continue
		}
		if list, ok := s.subs.Load(canonical); ok {
			list.mu.Lock()
			n := len(list.subs)
			list.mu.Unlock()
			if n > 0 {
				continue
			}
		}
		delete(s.entries, canonical)
		s.log.Debug("cache entry evicted", "key", canonical, "age", now.Sub(ent.LastUpdated))
	}
}
