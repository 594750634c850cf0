package cache

import (
	"errors"
	"fmt"
)

// ErrQueryDisabled is returned when a query runs with Enabled=false, e.g. a
// detail read whose id is not yet known.
var ErrQueryDisabled = errors.New("cache: query disabled")

// ErrInvalidResultType is returned when a cached value does not match the
// type requested by a typed read.
var ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

// FetchError wraps a read-path failure for one key. The entry for the key is
// marked StatusError; other keys are unaffected.
type FetchError struct {
	Key QueryKey
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("cache: fetch %s: %v", e.Key.Canonical(), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "cache: config error in field " + e.Field + ": " + e.Message
}
