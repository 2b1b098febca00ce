/*
*	Capability maps negotiated at session start: ordered string keys to
*	dynamic values, intersected pairwise under the value total order.
 */
package capability

import (
	"fmt"

	"qi.dev/qi/format"
	"qi.dev/qi/types"
	"qi.dev/qi/value"
)

const (
	RemoteCancelableCalls = "RemoteCancelableCalls"
	ObjectPtrUID          = "ObjectPtrUID"
	RelativeEndpointURI   = "RelativeEndpointURI"
)

// requiredKeys are the capabilities this implementation cannot work
// without; each must negotiate to true.
var requiredKeys = []string{
	RemoteCancelableCalls,
	ObjectPtrUID,
	RelativeEndpointURI,
}

type KV struct {
	Key   string
	Value value.Value
}

// Map is an insertion-ordered capability map.
type Map []KV

func (m Map) Get(key string) (v value.Value, ok bool) {
	for _, kv := range m {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

func (m Map) GetBool(key string) bool {
	v, ok := m.Get(key)
	if !ok {
		return false
	}
	if d, isDynamic := v.(value.Dynamic); isDynamic {
		v = d.Value
	}
	b, isBool := v.(value.Bool)
	return isBool && bool(b)
}

func (m *Map) Set(key string, v value.Value) {
	for i, kv := range *m {
		if kv.Key == key {
			(*m)[i].Value = v
			return
		}
	}
	*m = append(*m, KV{Key: key, Value: v})
}

func (m Map) Clone() (clone Map) {
	clone = append(clone, m...)
	return
}

// Local returns the capabilities this implementation advertises.
func Local() Map {
	return Map{
		{Key: RemoteCancelableCalls, Value: value.Bool(true)},
		{Key: ObjectPtrUID, Value: value.Bool(true)},
		{Key: RelativeEndpointURI, Value: value.Bool(true)},
	}
}

// Intersect keeps the keys present in both maps, each at the minimum
// of the two values under the value total order. The result preserves
// the key order of m.
func Intersect(m, other Map) (shared Map) {
	for _, kv := range m {
		otherValue, ok := other.Get(kv.Key)
		if !ok {
			continue
		}
		minValue := kv.Value
		if value.Cmp(otherValue, minValue) < 0 {
			minValue = otherValue
		}
		shared = append(shared, KV{Key: kv.Key, Value: minValue})
	}
	return
}

type MissingRequiredCapabilityError struct {
	Key      string
	Expected bool
}

func (e *MissingRequiredCapabilityError) Error() string {
	return fmt.Sprintf("expected capability %q to have value %v", e.Key, e.Expected)
}

// CheckRequired fails on the first required capability that is missing
// or negotiated to false.
func CheckRequired(m Map) (err error) {
	for _, key := range requiredKeys {
		if !m.GetBool(key) {
			return &MissingRequiredCapabilityError{Key: key, Expected: true}
		}
	}
	return
}

//	capability maps travel as {string → dynamic} values

func mapType() *types.Type {
	return types.Map(types.String(), nil)
}

func (m Map) ToValue() value.Value {
	entries := make(value.Map, 0, len(m))
	for _, kv := range m {
		wrapped := kv.Value
		if _, isDynamic := wrapped.(value.Dynamic); !isDynamic {
			wrapped = value.Dynamic{Value: kv.Value}
		}
		entries = append(entries, value.MapEntry{Key: value.String(kv.Key), Value: wrapped})
	}
	return entries
}

func FromValue(v value.Value) (m Map, err error) {
	if d, ok := v.(value.Dynamic); ok {
		v = d.Value
	}
	entries, ok := v.(value.Map)
	if !ok {
		err = fmt.Errorf("capability map value has type %s, expected a map", v.Type().Signature())
		return
	}
	for _, entry := range entries {
		key, isString := entry.Key.(value.String)
		if !isString {
			err = fmt.Errorf("capability map key has type %s, expected a string", entry.Key.Type().Signature())
			return
		}
		val := entry.Value
		if d, isDynamic := val.(value.Dynamic); isDynamic {
			val = d.Value
		}
		m.Set(string(key), val)
	}
	return
}

func (m Map) Encode() (buf []byte, err error) {
	return format.ToBytes(m.ToValue())
}

func Decode(buf []byte) (m Map, err error) {
	v, err := format.FromBytes(buf, mapType())
	if err != nil {
		return
	}
	return FromValue(v)
}
