/*
*	Polymorphic qi values. Every Go value exchanged over the wire has a
*	Value form mirroring the type universe in qi.dev/qi/types.
 */
package value

import (
	"fmt"
	"math"
	"strings"

	"qi.dev/qi/types"
)

// Value is the tagged union of all qi values. Values are totally
// ordered with Cmp and report their most specific runtime type.
type Value interface {
	Type() *types.Type
	isValue()
}

type Unit struct{}
type Bool bool
type Int8 int8
type UInt8 uint8
type Int16 int16
type UInt16 uint16
type Int32 int32
type UInt32 uint32
type Int64 int64
type UInt64 uint64
type Float32 float32
type Float64 float64

// String is a sequence of bytes. The wire format does not require
// string payloads to be valid UTF-8, and neither does this type.
type String string

type Raw []byte

// Option is a possibly absent value. A nil Elem is the empty option.
type Option struct {
	Elem Value
}

type List []Value

type MapEntry struct {
	Key   Value
	Value Value
}

// Map is an association list preserving insertion order. Keys are
// unique; Set replaces the value of an existing key without moving it.
type Map []MapEntry

// Tuple is the common shape of anonymous tuples, named tuple structs
// (Name set, Fields nil) and structs (Fields aligned with Elements).
type Tuple struct {
	Name     string
	Fields   []string
	Elements []Value
}

// Object is a reference to a remote object: its metaobject (kept as a
// generic value tree), its location and its 20-byte UID.
type Object struct {
	MetaObject Value
	ServiceID  uint32
	ObjectID   uint32
	UID        [20]byte
}

// Dynamic carries a value together with its runtime signature on the
// wire.
type Dynamic struct {
	Value Value
}

func (Unit) isValue()    {}
func (Bool) isValue()    {}
func (Int8) isValue()    {}
func (UInt8) isValue()   {}
func (Int16) isValue()   {}
func (UInt16) isValue()  {}
func (Int32) isValue()   {}
func (UInt32) isValue()  {}
func (Int64) isValue()   {}
func (UInt64) isValue()  {}
func (Float32) isValue() {}
func (Float64) isValue() {}
func (String) isValue()  {}
func (Raw) isValue()     {}
func (Option) isValue()  {}
func (List) isValue()    {}
func (Map) isValue()     {}
func (Tuple) isValue()   {}
func (Object) isValue()  {}
func (Dynamic) isValue() {}

func (Unit) Type() *types.Type    { return types.Unit() }
func (Bool) Type() *types.Type    { return types.Bool() }
func (Int8) Type() *types.Type    { return types.Int8() }
func (UInt8) Type() *types.Type   { return types.UInt8() }
func (Int16) Type() *types.Type   { return types.Int16() }
func (UInt16) Type() *types.Type  { return types.UInt16() }
func (Int32) Type() *types.Type   { return types.Int32() }
func (UInt32) Type() *types.Type  { return types.UInt32() }
func (Int64) Type() *types.Type   { return types.Int64() }
func (UInt64) Type() *types.Type  { return types.UInt64() }
func (Float32) Type() *types.Type { return types.Float32() }
func (Float64) Type() *types.Type { return types.Float64() }
func (String) Type() *types.Type  { return types.String() }
func (Raw) Type() *types.Type     { return types.Raw() }
func (Object) Type() *types.Type  { return types.Object() }

// The runtime type of a dynamic value is the dynamic type itself; the
// carried value keeps its own signature for the wire.
func (Dynamic) Type() *types.Type { return nil }

func (o Option) Type() *types.Type {
	if o.Elem == nil {
		return types.Option(nil)
	}
	return types.Option(o.Elem.Type())
}

func (l List) Type() *types.Type {
	elems := make([]*types.Type, len(l))
	for i, v := range l {
		elems[i] = v.Type()
	}
	return types.List(types.Reduce(elems))
}

func (m Map) Type() *types.Type {
	pairs := make([][2]*types.Type, len(m))
	for i, e := range m {
		pairs[i] = [2]*types.Type{e.Key.Type(), e.Value.Type()}
	}
	key, value := types.ReduceMap(pairs)
	return types.Map(key, value)
}

func (t Tuple) Type() *types.Type {
	elems := make([]*types.Type, len(t.Elements))
	for i, v := range t.Elements {
		elems[i] = v.Type()
	}
	switch {
	case t.Name == "":
		return types.Tuple(elems...)
	case t.Fields == nil:
		return types.TupleStruct(t.Name, elems...)
	default:
		fields := make([]types.Field, len(elems))
		for i := range elems {
			fields[i] = types.Field{Name: t.Fields[i], Type: elems[i]}
		}
		return types.Struct(t.Name, fields...)
	}
}

// Get looks a key up, by structural equality.
func (m Map) Get(key Value) (v Value, ok bool) {
	for _, e := range m {
		if Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Set inserts or replaces in place, preserving insertion order.
func (m *Map) Set(key, value Value) {
	for i, e := range *m {
		if Equal(e.Key, key) {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, MapEntry{Key: key, Value: value})
}

func (m Map) Keys() (keys []Value) {
	for _, e := range m {
		keys = append(keys, e.Key)
	}
	return
}

func Equal(a, b Value) bool {
	return Cmp(a, b) == 0
}

func rank(v Value) int {
	switch v.(type) {
	case Unit:
		return 0
	case Bool:
		return 1
	case Int8:
		return 2
	case UInt8:
		return 3
	case Int16:
		return 4
	case UInt16:
		return 5
	case Int32:
		return 6
	case UInt32:
		return 7
	case Int64:
		return 8
	case UInt64:
		return 9
	case Float32:
		return 10
	case Float64:
		return 11
	case String:
		return 12
	case Raw:
		return 13
	case Option:
		return 14
	case List:
		return 15
	case Map:
		return 16
	case Tuple:
		return 17
	case Object:
		return 18
	}
	return -1
}

// Cmp is a total order over values. Values of different shapes order
// by shape; floats use IEEE-754 total ordering, so NaN payloads are
// ordered too. Dynamic wrappers are transparent.
func Cmp(a, b Value) int {
	if d, ok := a.(Dynamic); ok {
		a = d.Value
	}
	if d, ok := b.(Dynamic); ok {
		b = d.Value
	}
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(int64(ra), int64(rb))
	}
	switch av := a.(type) {
	case Unit:
		return 0
	case Bool:
		return cmpBool(bool(av), bool(b.(Bool)))
	case Int8:
		return cmpInt(int64(av), int64(b.(Int8)))
	case UInt8:
		return cmpUint(uint64(av), uint64(b.(UInt8)))
	case Int16:
		return cmpInt(int64(av), int64(b.(Int16)))
	case UInt16:
		return cmpUint(uint64(av), uint64(b.(UInt16)))
	case Int32:
		return cmpInt(int64(av), int64(b.(Int32)))
	case UInt32:
		return cmpUint(uint64(av), uint64(b.(UInt32)))
	case Int64:
		return cmpInt(int64(av), int64(b.(Int64)))
	case UInt64:
		return cmpUint(uint64(av), uint64(b.(UInt64)))
	case Float32:
		return cmpUint(uint64(totalOrder32(float32(av))), uint64(totalOrder32(float32(b.(Float32)))))
	case Float64:
		return cmpUint(totalOrder64(float64(av)), totalOrder64(float64(b.(Float64))))
	case String:
		return strings.Compare(string(av), string(b.(String)))
	case Raw:
		return strings.Compare(string(av), string(b.(Raw)))
	case Option:
		bo := b.(Option)
		switch {
		case av.Elem == nil && bo.Elem == nil:
			return 0
		case av.Elem == nil:
			return -1
		case bo.Elem == nil:
			return 1
		default:
			return Cmp(av.Elem, bo.Elem)
		}
	case List:
		return cmpValues(av, b.(List))
	case Map:
		bm := b.(Map)
		for i := 0; i < len(av) && i < len(bm); i++ {
			if c := Cmp(av[i].Key, bm[i].Key); c != 0 {
				return c
			}
			if c := Cmp(av[i].Value, bm[i].Value); c != 0 {
				return c
			}
		}
		return cmpInt(int64(len(av)), int64(len(bm)))
	case Tuple:
		bt := b.(Tuple)
		if c := strings.Compare(av.Name, bt.Name); c != 0 {
			return c
		}
		return cmpValues(av.Elements, bt.Elements)
	case Object:
		bo := b.(Object)
		if c := strings.Compare(string(av.UID[:]), string(bo.UID[:])); c != 0 {
			return c
		}
		if c := cmpUint(uint64(av.ServiceID), uint64(bo.ServiceID)); c != 0 {
			return c
		}
		return cmpUint(uint64(av.ObjectID), uint64(bo.ObjectID))
	}
	return 0
}

func cmpValues(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Cmp(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(int64(len(a)), int64(len(b)))
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// totalOrder64 maps a float onto an unsigned integer whose natural
// order is the IEEE-754 totalOrder predicate.
func totalOrder64(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}

func totalOrder32(f float32) uint32 {
	bits := math.Float32bits(f)
	if bits&(1<<31) != 0 {
		return ^bits
	}
	return bits | (1 << 31)
}

func (v Dynamic) String() string {
	return fmt.Sprintf("dynamic(%v)", v.Value)
}
