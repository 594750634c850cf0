// Package di wires the cache engine: store, executor, coordinator, and
// invalidator share one container, and typed resources are minted from it.
package di

import (
	"log/slog"

	"github.com/AryanKumar02/HomeIQ-sub001/cache"
	"github.com/AryanKumar02/HomeIQ-sub001/internal/cacheinfra"
	"github.com/AryanKumar02/HomeIQ-sub001/resourcecache"
)

// Container provides dependency injection for the cache engine. It manages
// singleton instances of the store and the policy layers, and provides the
// factory for typed resources. Tests build one container per test to get an
// isolated cache.
type Container struct {
	config      cache.Config
	logger      *slog.Logger
	store       cache.Store
	executor    *resourcecache.Executor
	invalidator *resourcecache.Invalidator
	coordinator *resourcecache.Coordinator
	serializer  cache.KeySerializer
}

// NewContainer validates the configuration and wires the engine.
func NewContainer(cfg cache.Config) (*Container, error) {
	store, err := cacheinfra.NewMemoryStore(cfg)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	executor := resourcecache.NewExecutor(store, cfg.DefaultStaleTime, logger)
	invalidator := resourcecache.NewInvalidator(store, executor, logger)
	coordinator := resourcecache.NewCoordinator(store, invalidator, logger)

	return &Container{
		config:      cfg,
		logger:      logger,
		store:       store,
		executor:    executor,
		invalidator: invalidator,
		coordinator: coordinator,
		serializer:  cache.NewDefaultKeySerializer(),
	}, nil
}

// NewContainerWithDefaults wires the engine with cache.DefaultConfig().
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(cache.DefaultConfig())
}

// Store returns the singleton store instance.
func (c *Container) Store() cache.Store { return c.store }

// Executor returns the singleton query executor.
func (c *Container) Executor() *resourcecache.Executor { return c.executor }

// Coordinator returns the singleton mutation coordinator.
func (c *Container) Coordinator() *resourcecache.Coordinator { return c.coordinator }

// Invalidator returns the singleton invalidation engine.
func (c *Container) Invalidator() *resourcecache.Invalidator { return c.invalidator }

// KeySerializer returns the serializer used for key construction.
func (c *Container) KeySerializer() cache.KeySerializer { return c.serializer }

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() cache.Config { return c.config }

// Close stops the store's background maintenance.
func (c *Container) Close() error { return c.store.Close() }

// NewResource mints a typed resource wired to the container's engine.
//
// Since Go methods cannot have type parameters, this is a package-level
// function: NewResource[homeiq.Property](container, "properties", remote).
func NewResource[T any](c *Container, name string, remote resourcecache.Remote[T], opts ...resourcecache.Option[T]) *resourcecache.Resource[T] {
	return resourcecache.New(name, remote, c.store, c.executor, c.coordinator, opts...)
}
