package cache

import (
	"github.com/cespare/xxhash/v2"
)

// QueryKey identifies one cached read. It is immutable once constructed: the
// canonical serialization and its hash are computed eagerly, so two keys are
// equal (==) exactly when their canonical forms match.
type QueryKey struct {
	resource  string
	verb      string
	canonical string
	hash      uint64
}

// NewKey builds a QueryKey using the default key serializer.
func NewKey(resource, verb string, args ...any) QueryKey {
	return NewKeyUsing(defaultSerializer, resource, verb, args...)
}

// NewKeyUsing builds a QueryKey with a custom serializer. The serializer must
// produce deterministic output for the engine's equality guarantees to hold.
func NewKeyUsing(s KeySerializer, resource, verb string, args ...any) QueryKey {
	parts := make([]any, 0, len(args)+1)
	parts = append(parts, verb)
	parts = append(parts, args...)
	canonical := s.SerializeKey(resource, parts...)
	return QueryKey{
		resource:  resource,
		verb:      verb,
		canonical: canonical,
		hash:      xxhash.Sum64String(canonical),
	}
}

// KeyPrefix returns the canonical prefix shared by every key built from the
// given resource and verb. Used for prefix-based invalidation.
func KeyPrefix(resource, verb string) string {
	return resource + KeySeparator + verb
}

// Resource returns the resource segment of the key (e.g. "properties").
func (k QueryKey) Resource() string { return k.resource }

// Verb returns the verb segment of the key (e.g. "list", "detail").
func (k QueryKey) Verb() string { return k.verb }

// Canonical returns the full serialized form of the key.
func (k QueryKey) Canonical() string { return k.canonical }

// Hash returns the xxhash of the canonical form. Stable within and across
// processes for the default serializer.
func (k QueryKey) Hash() uint64 { return k.hash }

// IsZero reports whether the key was never constructed through NewKey.
func (k QueryKey) IsZero() bool { return k.canonical == "" }

func (k QueryKey) String() string { return k.canonical }
