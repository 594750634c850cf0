package resourcecache

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/AryanKumar02/HomeIQ-sub001/cache"
)

// ListResult wraps a page of items plus the collection total, cached as one
// unit so pagination counters never drift from the rows.
type ListResult[T any] struct {
	Items []T `json:"items" msgpack:"items"`
	Total int `json:"total" msgpack:"total"`
}

// Remote is the external collaborator for one collection. Implementations
// live outside this package (see the homeiq client); the engine only ever
// calls these five operations.
type Remote[T any] interface {
	List(ctx context.Context, filter any) (ListResult[T], error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, input T) (T, error)
	Update(ctx context.Context, id string, input T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Rules declares the cross-entity invalidation for one resource, as canonical
// key prefixes per mutation verb. Declared statically at wiring time, never
// inferred, so unrelated views are not over-invalidated.
type Rules struct {
	OnCreate []string
	OnUpdate []string
	OnDelete []string
}

// Option configures a Resource.
type Option[T any] func(*Resource[T])

// WithIDFunc overrides reflection-based id extraction.
func WithIDFunc[T any](fn func(T) string) Option[T] {
	return func(r *Resource[T]) { r.idOf = fn }
}

// WithRules sets the resource's cross-entity invalidation rules.
func WithRules[T any](rules Rules) Option[T] {
	return func(r *Resource[T]) { r.rules = rules }
}

// WithResourceStaleTime overrides the engine default freshness window for
// this resource's reads.
func WithResourceStaleTime[T any](d time.Duration) Option[T] {
	return func(r *Resource[T]) {
		r.staleTime = d
		r.staleSet = true
	}
}

// Resource binds one remote collection to the cache engine. It keeps every
// cached list for the collection registered, so a mutation can update the
// item's detail entry and all lists containing it in a single batch.
type Resource[T any] struct {
	name   string
	remote Remote[T]
	store  cache.Store
	exec   *Executor
	coord  *Coordinator

	listKeys  *xsync.MapOf[string, cache.QueryKey]
	idOf      func(T) string
	rules     Rules
	staleTime time.Duration
	staleSet  bool
}

// New builds a Resource. name namespaces all of the resource's keys (e.g.
// "properties").
func New[T any](name string, remote Remote[T], store cache.Store, exec *Executor, coord *Coordinator, opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{
		name:     name,
		remote:   remote,
		store:    store,
		exec:     exec,
		coord:    coord,
		listKeys: xsync.NewMapOf[string, cache.QueryKey](),
		idOf:     extractID[T],
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListKey returns the query key for a filtered list read.
func (r *Resource[T]) ListKey(filter any) cache.QueryKey {
	return cache.NewKey(r.name, "list", filter)
}

// DetailKey returns the query key for a single item read.
func (r *Resource[T]) DetailKey(id string) cache.QueryKey {
	return cache.NewKey(r.name, "detail", id)
}

// ListPrefix returns the canonical prefix covering every list key of this
// resource, for use in invalidation rules.
func (r *Resource[T]) ListPrefix() string {
	return cache.KeyPrefix(r.name, "list")
}

// List reads a filtered page through the cache.
func (r *Resource[T]) List(ctx context.Context, filter any) (ListResult[T], error) {
	key := r.ListKey(filter)
	r.listKeys.Store(key.Canonical(), key)
	return Query(ctx, r.exec, key, func(ctx context.Context) (ListResult[T], error) {
		return r.remote.List(ctx, filter)
	}, r.queryOptions()...)
}

// Get reads one item through the cache. An empty id disables the query (the
// conditional-fetch case) and returns cache.ErrQueryDisabled.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	key := r.DetailKey(id)
	opts := append(r.queryOptions(), WhenEnabled(id != ""))
	return Query(ctx, r.exec, key, func(ctx context.Context) (T, error) {
		return r.remote.Get(ctx, id)
	}, opts...)
}

// Subscribe attaches an observer to one of the resource's keys and returns
// the unsubscribe func.
func (r *Resource[T]) Subscribe(key cache.QueryKey, fn cache.SubscriberFunc) func() {
	return r.store.Subscribe(key, fn)
}

// Create inserts the item optimistically into every cached list (under a
// placeholder id when the input has none), then reconciles the lists with the
// server's item on commit. The resource's own lists are also invalidated on
// commit: server-side ordering and pagination are not knowable locally.
func (r *Resource[T]) Create(ctx context.Context, input T) (T, error) {
	var zero T

	optimistic := input
	placeholderID := r.idOf(input)
	if placeholderID == "" {
		placeholderID = "optimistic-" + uuid.NewString()
		if withID, ok := setID(optimistic, placeholderID); ok {
			optimistic = withID
		}
	}

	m, err := NewMutation().
		Targets(r.cachedListKeys()...).
		Apply(func(_ cache.QueryKey, current any, present bool) (any, bool) {
			list, ok := asList[T](current, present)
			if !ok {
				return nil, false
			}
			next, err := cache.Clone(list)
			if err != nil {
				return nil, false
			}
			next.Items = append(next.Items, optimistic)
			next.Total = list.Total + 1
			return next, true
		}).
		Remote(func(ctx context.Context) (any, error) {
			return r.remote.Create(ctx, input)
		}).
		Reconcile(func(_ cache.QueryKey, current any, present bool, response any) (any, bool) {
			created, ok := response.(T)
			if !ok {
				return nil, false
			}
			list, ok := asList[T](current, present)
			if !ok {
				return nil, false
			}
			return r.replaceInList(list, placeholderID, created)
		}).
		InvalidatesMatching(append([]string{r.ListPrefix()}, r.rules.OnCreate...)...).
		Build()
	if err != nil {
		return zero, err
	}

	response, err := r.coord.Execute(ctx, m)
	if err != nil {
		return zero, err
	}
	created, ok := response.(T)
	if !ok {
		return zero, fmt.Errorf("%w: have %T", cache.ErrInvalidResultType, response)
	}
	return created, nil
}

// Update writes the item optimistically to its detail entry and to every
// cached list containing it, then overwrites both with the server's
// authoritative item on commit. Detail and lists move together in each phase.
func (r *Resource[T]) Update(ctx context.Context, id string, input T) (T, error) {
	var zero T
	detailKey := r.DetailKey(id)
	targets := append([]cache.QueryKey{detailKey}, r.cachedListKeys()...)

	m, err := NewMutation().
		Targets(targets...).
		Apply(func(key cache.QueryKey, current any, present bool) (any, bool) {
			if key == detailKey {
				return input, true
			}
			list, ok := asList[T](current, present)
			if !ok {
				return nil, false
			}
			return r.replaceInList(list, id, input)
		}).
		Remote(func(ctx context.Context) (any, error) {
			return r.remote.Update(ctx, id, input)
		}).
		Reconcile(func(key cache.QueryKey, current any, present bool, response any) (any, bool) {
			updated, ok := response.(T)
			if !ok {
				return nil, false
			}
			if key == detailKey {
				return updated, true
			}
			list, ok := asList[T](current, present)
			if !ok {
				return nil, false
			}
			return r.replaceInList(list, id, updated)
		}).
		InvalidatesMatching(r.rules.OnUpdate...).
		Build()
	if err != nil {
		return zero, err
	}

	response, err := r.coord.Execute(ctx, m)
	if err != nil {
		return zero, err
	}
	updated, ok := response.(T)
	if !ok {
		return zero, fmt.Errorf("%w: have %T", cache.ErrInvalidResultType, response)
	}
	return updated, nil
}

// Delete removes the item optimistically from every cached list; the detail
// entry is removed when the server confirms. A rejection (e.g. "cannot delete
// tenant with active lease") restores the lists exactly.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	m, err := NewMutation().
		Targets(r.cachedListKeys()...).
		Apply(func(_ cache.QueryKey, current any, present bool) (any, bool) {
			list, ok := asList[T](current, present)
			if !ok {
				return nil, false
			}
			return r.removeFromList(list, id)
		}).
		Remote(func(ctx context.Context) (any, error) {
			return nil, r.remote.Delete(ctx, id)
		}).
		RemovesOnCommit(r.DetailKey(id)).
		InvalidatesMatching(r.rules.OnDelete...).
		Build()
	if err != nil {
		return err
	}

	_, err = r.coord.Execute(ctx, m)
	return err
}

// cachedListKeys returns the registered list keys that still have a resident
// entry; evicted ones are pruned from the registry as a side effect.
func (r *Resource[T]) cachedListKeys() []cache.QueryKey {
	var keys []cache.QueryKey
	r.listKeys.Range(func(canonical string, key cache.QueryKey) bool {
		if _, ok := r.store.Get(key); ok {
			keys = append(keys, key)
		} else {
			r.listKeys.Delete(canonical)
		}
		return true
	})
	return keys
}

// replaceInList returns a copy of list with the item having the given id
// swapped for item. Returns false when the id is not in the list.
func (r *Resource[T]) replaceInList(list ListResult[T], id string, item T) (any, bool) {
	idx := -1
	for i, existing := range list.Items {
		if r.idOf(existing) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	next, err := cache.Clone(list)
	if err != nil {
		return nil, false
	}
	next.Items[idx] = item
	return next, true
}

// removeFromList returns a copy of list without the item having the given id.
// Returns false when the id is not in the list.
func (r *Resource[T]) removeFromList(list ListResult[T], id string) (any, bool) {
	idx := -1
	for i, existing := range list.Items {
		if r.idOf(existing) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	next, err := cache.Clone(list)
	if err != nil {
		return nil, false
	}
	next.Items = append(next.Items[:idx], next.Items[idx+1:]...)
	next.Total = list.Total - 1
	return next, true
}

func (r *Resource[T]) queryOptions() []QueryOption {
	if r.staleSet {
		return []QueryOption{WithStaleTime(r.staleTime)}
	}
	return nil
}

// asList narrows a cached value to this resource's list shape.
func asList[T any](current any, present bool) (ListResult[T], bool) {
	if !present {
		return ListResult[T]{}, false
	}
	list, ok := current.(ListResult[T])
	return list, ok
}

// idFieldNames are the field names probed by reflection-based id extraction,
// in order.
var idFieldNames = []string{"ID", "Id", "id"}

// extractID pulls the id out of a record by looking for conventional field
// names. Returns "" when no id field exists or it is empty.
func extractID[T any](record T) string {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}
	for _, name := range idFieldNames {
		field := v.FieldByName(name)
		if field.IsValid() && field.CanInterface() {
			return fmt.Sprintf("%v", field.Interface())
		}
	}
	return ""
}

// setID returns a copy of record with its id field set, when the field exists
// and is a settable string.
func setID[T any](record T, id string) (T, bool) {
	v := reflect.ValueOf(&record).Elem()
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return record, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return record, false
	}
	for _, name := range idFieldNames {
		field := v.FieldByName(name)
		if field.IsValid() && field.CanSet() && field.Kind() == reflect.String {
			field.SetString(id)
			return record, true
		}
	}
	return record, false
}
