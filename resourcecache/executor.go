package resourcecache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"github.com/AryanKumar02/HomeIQ-sub001/cache"
)

// FetchFunc loads a value from the source of truth for one key.
type FetchFunc func(ctx context.Context) (any, error)

// QueryOption adjusts a single Query call.
type QueryOption func(*queryConfig)

type queryConfig struct {
	enabled   bool
	staleTime time.Duration
}

// WhenEnabled gates the query on a condition, e.g. "only fetch the detail
// view once the id is known". A disabled query returns cache.ErrQueryDisabled
// without touching the store or the network.
func WhenEnabled(enabled bool) QueryOption {
	return func(c *queryConfig) { c.enabled = enabled }
}

// WithStaleTime overrides the executor's default freshness window. Zero means
// a cached entry is never considered fresh enough to skip the fetch.
func WithStaleTime(d time.Duration) QueryOption {
	return func(c *queryConfig) { c.staleTime = d }
}

// registeredFetch remembers how a key was last fetched so the invalidator can
// re-issue the request without the original caller.
type registeredFetch struct {
	fn        FetchFunc
	staleTime time.Duration
}

// Executor is the read path of the engine. At most one fetch per key is in
// flight at any time: concurrent queries coalesce onto it, and an
// invalidation supersedes it so its late response is discarded instead of
// regressing the cache.
type Executor struct {
	store        cache.Store
	log          *slog.Logger
	defaultStale time.Duration

	flight   singleflight.Group
	gens     *xsync.MapOf[string, uint64]
	fetchers *xsync.MapOf[string, registeredFetch]
}

// NewExecutor builds an executor over the given store.
func NewExecutor(store cache.Store, defaultStaleTime time.Duration, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		store:        store,
		log:          log,
		defaultStale: defaultStaleTime,
		gens:         xsync.NewMapOf[string, uint64](),
		fetchers:     xsync.NewMapOf[string, registeredFetch](),
	}
}

// Query resolves a read. A fresh entry within the stale window is returned
// without a network call; otherwise the fetch runs (or an in-flight fetch for
// the same key is joined) and the entry transitions fetching -> fresh/error.
func (e *Executor) Query(ctx context.Context, key cache.QueryKey, fn FetchFunc, opts ...QueryOption) (any, error) {
	cfg := queryConfig{enabled: true, staleTime: e.defaultStale}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.enabled {
		return nil, cache.ErrQueryDisabled
	}

	canonical := key.Canonical()
	e.fetchers.Store(canonical, registeredFetch{fn: fn, staleTime: cfg.staleTime})

	if ent, ok := e.store.Get(key); ok && ent.FreshWithin(time.Now(), cfg.staleTime) {
		return ent.Value, nil
	}
	return e.fetch(ctx, key, fn)
}

// Query is the type-safe wrapper around Executor.Query.
func Query[T any](ctx context.Context, e *Executor, key cache.QueryKey, fn func(ctx context.Context) (T, error), opts ...QueryOption) (T, error) {
	var zero T
	res, err := e.Query(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, opts...)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("%w: have %T", cache.ErrInvalidResultType, res)
	}
	return typed, nil
}

// Refetch re-issues the last registered fetch for the key, bypassing the
// freshness check. Returns false when no fetch was ever registered.
func (e *Executor) Refetch(ctx context.Context, key cache.QueryKey) (bool, error) {
	reg, ok := e.fetchers.Load(key.Canonical())
	if !ok {
		return false, nil
	}
	_, err := e.fetch(ctx, key, reg.fn)
	return true, err
}

// Supersede invalidates any in-flight fetch for the key: its response will be
// discarded on arrival, and the next Query starts a new request rather than
// joining the old one.
func (e *Executor) Supersede(key cache.QueryKey) {
	canonical := key.Canonical()
	e.gens.Compute(canonical, func(old uint64, _ bool) (uint64, bool) {
		return old + 1, false
	})
	e.flight.Forget(canonical)
}

func (e *Executor) currentGen(canonical string) uint64 {
	gen, _ := e.gens.Load(canonical)
	return gen
}

// fetch runs the coalesced fetch for a key. The generation captured before
// the remote call decides whether the response may write back: a Supersede in
// between means a newer request owns the key, and this result is dropped.
// Waiters coalesced onto a superseded flight still receive the fetched value;
// only the cache write is suppressed.
func (e *Executor) fetch(ctx context.Context, key cache.QueryKey, fn FetchFunc) (any, error) {
	canonical := key.Canonical()

	value, err, _ := e.flight.Do(canonical, func() (any, error) {
		gen := e.currentGen(canonical)

		prev, _ := e.store.Get(key)
		e.store.Set(key, prev.Value, cache.StatusFetching)

		value, err := fn(ctx)
		if err != nil {
			if e.currentGen(canonical) == gen {
				e.store.SetError(key, err)
			} else {
				e.log.Debug("stale fetch error discarded", "key", canonical)
			}
			return nil, err
		}

		if e.currentGen(canonical) == gen {
			e.store.Set(key, value, cache.StatusFresh)
		} else {
			e.log.Debug("stale response discarded", "key", canonical)
		}
		return value, nil
	})
	if err != nil {
		return nil, &cache.FetchError{Key: key, Err: err}
	}
	return value, nil
}
