package cache

import (
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config exposes the cache engine configuration consumed by pkg/di.
type Config struct {
	// DefaultStaleTime is the freshness window applied to queries that do not
	// override it. Within the window a fresh entry is served without a fetch.
	DefaultStaleTime time.Duration

	// EntryTTL is how long an entry with no subscribers may sit untouched
	// before the GC sweep may evict it. Eviction is lazy, never eager.
	EntryTTL time.Duration

	// GCInterval is how often the store sweeps for evictable entries.
	// Zero disables the sweep entirely.
	GCInterval time.Duration

	// Logger receives debug events (stale-response discards, GC evictions).
	// Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the defaults used by the HomeIQ views:
// a 30 second freshness window and a lazy half-hour eviction horizon.
func DefaultConfig() Config {
	return Config{
		DefaultStaleTime: 30 * time.Second,
		EntryTTL:         30 * time.Minute,
		GCInterval:       5 * time.Minute,
	}
}

// Validate checks whether the configuration values are consistent.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DefaultStaleTime, validation.By(nonNegativeDuration)),
		validation.Field(&c.EntryTTL, validation.By(nonNegativeDuration)),
		validation.Field(&c.GCInterval, validation.By(nonNegativeDuration), validation.By(c.gcRequiresTTL)),
	)
}

func nonNegativeDuration(v any) error {
	d, _ := v.(time.Duration)
	if d < 0 {
		return validation.NewError("validation_duration_negative", "must be non-negative")
	}
	return nil
}

func (c Config) gcRequiresTTL(any) error {
	if c.GCInterval > 0 && c.EntryTTL <= 0 {
		return validation.NewError("validation_gc_requires_ttl", "EntryTTL must be positive when the GC sweep is enabled")
	}
	return nil
}
