package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// KeySeparator delimits the segments of a canonical key.
const KeySeparator = "::"

// KeySerializer builds a canonical key string from a resource name plus
// arbitrary arguments. Implementations must be deterministic: the same
// arguments always produce the same string, across calls and across runs.
type KeySerializer interface {
	SerializeKey(resource string, args ...any) string
}

// defaultKeySerializer walks argument values with reflection. Filters in this
// codebase are small structs of basic fields, so the common cases are basic
// types, pointers, slices, and structs; maps are serialized with sorted keys
// and anything exotic falls back to JSON.
type defaultKeySerializer struct{}

var defaultSerializer KeySerializer = &defaultKeySerializer{}

// NewDefaultKeySerializer returns the reflection-based serializer used by NewKey.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey joins the resource with each serialized argument.
func (s *defaultKeySerializer) SerializeKey(resource string, args ...any) string {
	if len(args) == 0 {
		return resource
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, resource)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	if t, ok := v.(time.Time); ok {
		return "time:" + t.UTC().Format(time.RFC3339Nano)
	}

	rv := reflect.ValueOf(v)
	rt := reflect.TypeOf(v)

	switch rt.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return s.serializeList("slice", rv)

	case reflect.Array:
		return s.serializeList("array", rv)

	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)

	case reflect.Struct:
		return s.serializeStruct(rv, rt)

	case reflect.Interface:
		if rv.IsNil() {
			return "interface:nil"
		}
		return s.serializeValue(rv.Elem().Interface())

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return fmt.Sprintf("%v", v)
	}

	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeList(label string, rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)
	for i := 0; i < length; i++ {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("%s[%d]:{%s}", label, length, strings.Join(parts, ","))
}

// serializeMap emits key=value pairs sorted by serialized key so that map
// iteration order never leaks into the canonical form.
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	type pair struct {
		k string
		v string
	}

	keys := rv.MapKeys()
	pairs := make([]pair, len(keys))
	for i, k := range keys {
		pairs[i] = pair{
			k: s.serializeValue(k.Interface()),
			v: s.serializeValue(rv.MapIndex(k).Interface()),
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	rendered := make([]string, len(pairs))
	for i, p := range pairs {
		rendered[i] = p.k + "=" + p.v
	}
	return fmt.Sprintf("map[%d]:{%s}", len(rendered), strings.Join(rendered, ","))
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value, rt reflect.Type) string {
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := rv.Field(i)
		if !fv.CanInterface() {
			continue
		}
		parts = append(parts, field.Name+":"+s.serializeValue(fv.Interface()))
	}
	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

// jsonFallback covers types the reflective walk does not handle (funcs,
// channels, unsafe pointers). Keys should not contain such values, but a
// stable-ish fallback beats a panic on the read path.
func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("fallback:%s", reflect.TypeOf(v).String())
	}
	return "json:" + string(data)
}
