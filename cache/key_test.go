package cache

import (
	"strings"
	"testing"
	"time"
)

type listFilter struct {
	Status   string
	Search   string
	Page     int
	PageSize int
	hidden   string
}

func TestNewKey_EqualityByCanonicalForm(t *testing.T) {
	a := NewKey("properties", "list", listFilter{Status: "available", Page: 1})
	b := NewKey("properties", "list", listFilter{Status: "available", Page: 1})
	c := NewKey("properties", "list", listFilter{Status: "occupied", Page: 1})

	if a != b {
		t.Errorf("expected identical keys to be equal:\n%s\n%s", a.Canonical(), b.Canonical())
	}
	if a == c {
		t.Errorf("expected keys with different filters to differ: %s", a.Canonical())
	}
	if a.Hash() != b.Hash() {
		t.Error("equal keys must share a hash")
	}
}

func TestNewKey_UnexportedFieldsIgnored(t *testing.T) {
	a := NewKey("properties", "list", listFilter{Status: "available", hidden: "x"})
	b := NewKey("properties", "list", listFilter{Status: "available", hidden: "y"})
	if a != b {
		t.Error("unexported fields must not affect the canonical form")
	}
}

func TestNewKey_PrefixMatchesKeyFamily(t *testing.T) {
	prefix := KeyPrefix("tenants", "list")
	key := NewKey("tenants", "list", listFilter{Page: 2})
	if !strings.HasPrefix(key.Canonical(), prefix) {
		t.Errorf("key %q does not start with family prefix %q", key.Canonical(), prefix)
	}

	detail := NewKey("tenants", "detail", "t1")
	if strings.HasPrefix(detail.Canonical(), prefix) {
		t.Errorf("detail key %q must not match the list prefix", detail.Canonical())
	}
}

func TestNewKey_ZeroValue(t *testing.T) {
	var k QueryKey
	if !k.IsZero() {
		t.Error("zero QueryKey must report IsZero")
	}
	if NewKey("properties", "list").IsZero() {
		t.Error("constructed key must not report IsZero")
	}
}

func TestSerializeKey_Deterministic(t *testing.T) {
	s := NewDefaultKeySerializer()

	tests := []struct {
		name string
		args []any
	}{
		{"basic", []any{"detail", "p1", 42, true}},
		{"slice", []any{"list", []string{"a", "b"}}},
		{"map", []any{"list", map[string]int{"b": 2, "a": 1, "c": 3}}},
		{"struct", []any{"list", listFilter{Status: "available", Search: "flat"}}},
		{"pointer", []any{"detail", &listFilter{Page: 3}}},
		{"time", []any{"list", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}},
		{"nil", []any{"detail", nil}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			first := s.SerializeKey("properties", tc.args...)
			for i := 0; i < 20; i++ {
				if got := s.SerializeKey("properties", tc.args...); got != first {
					t.Fatalf("serialization not deterministic: %q vs %q", first, got)
				}
			}
		})
	}
}

func TestSerializeKey_MapOrderIndependent(t *testing.T) {
	s := NewDefaultKeySerializer()
	// Maps with identical content must serialize identically regardless of
	// insertion order.
	m1 := map[string]string{"status": "available", "city": "Norwich", "search": "flat"}
	m2 := map[string]string{"search": "flat", "city": "Norwich", "status": "available"}

	if s.SerializeKey("properties", m1) != s.SerializeKey("properties", m2) {
		t.Error("map serialization leaked iteration order")
	}
}

func TestSerializeKey_NilVariants(t *testing.T) {
	s := NewDefaultKeySerializer()
	var nilPtr *listFilter
	var nilSlice []string
	var nilMap map[string]int

	for _, v := range []any{nilPtr, nilSlice, nilMap} {
		got := s.SerializeKey("properties", v)
		if got == "properties" {
			t.Errorf("nil argument %T must still contribute a segment, got %q", v, got)
		}
	}
}

func TestSerializeKey_NoArgs(t *testing.T) {
	s := NewDefaultKeySerializer()
	if got := s.SerializeKey("properties"); got != "properties" {
		t.Errorf("expected bare resource, got %q", got)
	}
}
