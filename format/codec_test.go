package format

import (
	"bytes"
	"testing"

	"qi.dev/qi/types"
	"qi.dev/qi/value"
)

func assertValueRoundTrip(t *testing.T, v value.Value, ty *types.Type) {
	t.Helper()
	buf, err := ToBytes(v)
	if err != nil {
		t.Fatalf("encoding %#v: %s", v, err)
	}
	back, err := FromBytes(buf, ty)
	if err != nil {
		t.Fatalf("decoding %v (%#v): %s", buf, v, err)
	}
	if !value.Equal(back, v) {
		t.Fatalf("round trip of %#v through %v gave %#v", v, buf, back)
	}
}

func TestValueRoundTrip(t *testing.T) {
	assertValueRoundTrip(t, value.Unit{}, types.Unit())
	assertValueRoundTrip(t, value.Bool(true), types.Bool())
	assertValueRoundTrip(t, value.Int8(-8), types.Int8())
	assertValueRoundTrip(t, value.UInt8(8), types.UInt8())
	assertValueRoundTrip(t, value.Int16(-16), types.Int16())
	assertValueRoundTrip(t, value.UInt16(16), types.UInt16())
	assertValueRoundTrip(t, value.Int32(-32), types.Int32())
	assertValueRoundTrip(t, value.UInt32(32), types.UInt32())
	assertValueRoundTrip(t, value.Int64(-64), types.Int64())
	assertValueRoundTrip(t, value.UInt64(64), types.UInt64())
	assertValueRoundTrip(t, value.Float32(1.25), types.Float32())
	assertValueRoundTrip(t, value.Float64(-2.5), types.Float64())
	assertValueRoundTrip(t, value.String("hello"), types.String())
	assertValueRoundTrip(t, value.String("\x00\x9f\x92\x96"), types.String())
	assertValueRoundTrip(t, value.Raw{1, 2, 3}, types.Raw())
	assertValueRoundTrip(t, value.Option{}, types.Option(types.Int32()))
	assertValueRoundTrip(t, value.Option{Elem: value.Int32(5)}, types.Option(types.Int32()))
	assertValueRoundTrip(t, value.List{value.Int32(1), value.Int32(2)}, types.List(types.Int32()))

	var m value.Map
	m.Set(value.String("b"), value.Int32(2))
	m.Set(value.String("a"), value.Int32(1))
	assertValueRoundTrip(t, m, types.Map(types.String(), types.Int32()))

	assertValueRoundTrip(t,
		value.Tuple{
			Name:     "Point",
			Fields:   []string{"x", "y"},
			Elements: []value.Value{value.Float64(1), value.Float64(2)},
		},
		types.Struct("Point",
			types.Field{Name: "x", Type: types.Float64()},
			types.Field{Name: "y", Type: types.Float64()}))
}

func TestDynamicRoundTrip(t *testing.T) {
	v := value.Dynamic{Value: value.String("abc")}
	buf, err := ToBytes(v)
	if err != nil {
		t.Fatal(err)
	}
	//	signature "s" then the string itself
	expected := []byte{1, 0, 0, 0, 's', 3, 0, 0, 0, 'a', 'b', 'c'}
	if !bytes.Equal(buf, expected) {
		t.Fatalf("got %v, expected %v", buf, expected)
	}
	assertValueRoundTrip(t, v, nil)
}

func TestDynamicInsideTuple(t *testing.T) {
	v := value.Tuple{Elements: []value.Value{
		value.Int32(1),
		value.Dynamic{Value: value.Bool(true)},
	}}
	assertValueRoundTrip(t, v, types.Tuple(types.Int32(), nil))
}

func TestTupleHasNoLengthPrefix(t *testing.T) {
	buf, err := ToBytes(value.Tuple{Elements: []value.Value{value.Int32(42)}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{42, 0, 0, 0}) {
		t.Fatalf("got %v", buf)
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	_, err := FromBytes([]byte{1, 0}, types.Bool())
	if err == nil {
		t.Fatal("trailing bytes must be rejected")
	}
}

func TestDecodeMapErrorsCarryIndex(t *testing.T) {
	//	two entries declared, second key missing
	buf := []byte{2, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}
	_, err := FromBytes(buf, types.Map(types.Int32(), types.Int32()))
	mapKey, ok := err.(*MapKeyError)
	if !ok {
		t.Fatalf("expected a map key error, got %v", err)
	}
	if mapKey.Index != 1 {
		t.Fatalf("error index is %d", mapKey.Index)
	}
}

func TestDecodeObject(t *testing.T) {
	obj := value.Object{
		MetaObject: emptyMetaObjectValue(),
		ServiceID:  2,
		ObjectID:   3,
	}
	for i := range obj.UID {
		obj.UID[i] = byte(i)
	}
	assertValueRoundTrip(t, obj, types.Object())
}

func emptyMetaObjectValue() value.Value {
	return value.Tuple{
		Name:   "MetaObject",
		Fields: []string{"methods", "signals", "properties", "description"},
		Elements: []value.Value{
			value.Map{},
			value.Map{},
			value.Map{},
			value.String(""),
		},
	}
}
