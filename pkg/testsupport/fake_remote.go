package testsupport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/AryanKumar02/HomeIQ-sub001/homeiq"
	"github.com/AryanKumar02/HomeIQ-sub001/resourcecache"
)

// Operation names accepted by FakeRemote's scripting methods.
const (
	OpList   = "List"
	OpGet    = "Get"
	OpCreate = "Create"
	OpUpdate = "Update"
	OpDelete = "Delete"
)

// FakeRemote is an in-memory resourcecache.Remote with scripting hooks:
// per-operation call counts, one-shot failures, and gates that hold an
// operation open until released. The gates are what the concurrency tests
// use to interleave fetches and mutations deterministically.
type FakeRemote[T any] struct {
	mu       sync.Mutex
	items    []T
	idOf     func(T) string
	assignID func(T, string) T
	seq      int
	calls    map[string]int
	failures map[string]error
	gates    map[string]chan struct{}

	updateTransform func(T) T
}

// SetUpdateTransform installs a server-side transform applied to update
// inputs, e.g. stamping an UpdatedAt. The transformed item is what Update
// stores and returns, standing in for the server's authoritative response.
func (f *FakeRemote[T]) SetUpdateTransform(fn func(T) T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateTransform = fn
}

// NewFakeRemote builds a fake over the seed items. assignID is used to stamp
// server-side ids on created items; nil leaves the input id untouched.
func NewFakeRemote[T any](idOf func(T) string, assignID func(T, string) T, seed ...T) *FakeRemote[T] {
	return &FakeRemote[T]{
		items:    append([]T(nil), seed...),
		idOf:     idOf,
		assignID: assignID,
		calls:    make(map[string]int),
		failures: make(map[string]error),
		gates:    make(map[string]chan struct{}),
	}
}

// FailNext makes the next call to op return err instead of acting.
func (f *FakeRemote[T]) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

// Gate holds every call to op open until the returned release func runs.
func (f *FakeRemote[T]) Gate(op string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[op] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, op)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times op has been invoked.
func (f *FakeRemote[T]) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Items returns a snapshot of the backing collection.
func (f *FakeRemote[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]T(nil), f.items...)
}

// Put inserts or replaces an item in the backing collection without counting
// as a call.
func (f *FakeRemote[T]) Put(item T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.items {
		if f.idOf(existing) == f.idOf(item) {
			f.items[i] = item
			return
		}
	}
	f.items = append(f.items, item)
}

// enter records the call and returns the gate and scripted failure for op.
func (f *FakeRemote[T]) enter(op string) (gate chan struct{}, fail error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	gate = f.gates[op]
	fail = f.failures[op]
	delete(f.failures, op)
	return gate, fail
}

func (f *FakeRemote[T]) wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List implements resourcecache.Remote. The filter is ignored; tests that
// care about filters use distinct fakes per filter.
func (f *FakeRemote[T]) List(ctx context.Context, filter any) (resourcecache.ListResult[T], error) {
	gate, fail := f.enter(OpList)
	if err := f.wait(ctx, gate); err != nil {
		return resourcecache.ListResult[T]{}, err
	}
	if fail != nil {
		return resourcecache.ListResult[T]{}, fail
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]T(nil), f.items...)
	return resourcecache.ListResult[T]{Items: items, Total: len(items)}, nil
}

func (f *FakeRemote[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	gate, fail := f.enter(OpGet)
	if err := f.wait(ctx, gate); err != nil {
		return zero, err
	}
	if fail != nil {
		return zero, fail
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if f.idOf(item) == id {
			return item, nil
		}
	}
	return zero, &homeiq.APIError{Status: http.StatusNotFound, Message: fmt.Sprintf("no such item %q", id)}
}

func (f *FakeRemote[T]) Create(ctx context.Context, input T) (T, error) {
	var zero T
	gate, fail := f.enter(OpCreate)
	if err := f.wait(ctx, gate); err != nil {
		return zero, err
	}
	if fail != nil {
		return zero, fail
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	created := input
	if f.assignID != nil {
		f.seq++
		created = f.assignID(input, fmt.Sprintf("srv-%d", f.seq))
	}
	f.items = append(f.items, created)
	return created, nil
}

func (f *FakeRemote[T]) Update(ctx context.Context, id string, input T) (T, error) {
	var zero T
	gate, fail := f.enter(OpUpdate)
	if err := f.wait(ctx, gate); err != nil {
		return zero, err
	}
	if fail != nil {
		return zero, fail
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	stored := input
	if f.updateTransform != nil {
		stored = f.updateTransform(input)
	}
	for i, item := range f.items {
		if f.idOf(item) == id {
			f.items[i] = stored
			return stored, nil
		}
	}
	return zero, &homeiq.APIError{Status: http.StatusNotFound, Message: fmt.Sprintf("no such item %q", id)}
}

func (f *FakeRemote[T]) Delete(ctx context.Context, id string) error {
	gate, fail := f.enter(OpDelete)
	if err := f.wait(ctx, gate); err != nil {
		return err
	}
	if fail != nil {
		return fail
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, item := range f.items {
		if f.idOf(item) == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &homeiq.APIError{Status: http.StatusNotFound, Message: fmt.Sprintf("no such item %q", id)}
}
