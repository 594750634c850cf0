package cache

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Clone deep-copies a value by round-tripping it through msgpack. Used where
// a derived value must not share memory with a cached one, e.g. when an
// optimistic apply edits a cached list.
func Clone[T any](v T) (T, error) {
	var out T
	data, err := msgpack.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("cache: clone encode: %w", err)
	}
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("cache: clone decode: %w", err)
	}
	return out, nil
}

// EncodeValue returns the canonical msgpack encoding of a value.
func EncodeValue(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cache: encode value: %w", err)
	}
	return data, nil
}

// EqualValues reports whether two values have identical msgpack encodings.
// This is the engine's notion of bytewise equality: the mutation coordinator
// uses it to decide whether a key still holds its own optimistic value before
// rolling it back. Unencodable values are never equal.
func EqualValues(a, b any) bool {
	da, err := msgpack.Marshal(a)
	if err != nil {
		return false
	}
	db, err := msgpack.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(da, db)
}
