package types

import (
	"testing"
)

func TestCommon(t *testing.T) {
	if Common(Int32(), Int32()) == nil {
		t.Fatal("equal types must have a common type")
	}
	if Common(Int32(), Int64()) != nil {
		t.Fatal("distinct types have no common type")
	}
	if Common(nil, Int32()) != nil || Common(Int32(), nil) != nil || Common(nil, nil) != nil {
		t.Fatal("dynamic unifies with nothing")
	}
}

func TestReduce(t *testing.T) {
	if Reduce(nil) != nil {
		t.Fatal("reducing no types must be dynamic")
	}
	reduced := Reduce([]*Type{String(), String(), String()})
	if !Equal(reduced, String()) {
		t.Fatalf("got %v, expected string", reduced)
	}
	if Reduce([]*Type{String(), Int32()}) != nil {
		t.Fatal("heterogeneous element types must reduce to dynamic")
	}
	if Reduce([]*Type{String(), nil, String()}) != nil {
		t.Fatal("a dynamic element must poison the reduction")
	}
}

func TestReduceMap(t *testing.T) {
	key, val := ReduceMap([][2]*Type{
		{String(), Int32()},
		{String(), Int64()},
	})
	if !Equal(key, String()) {
		t.Fatalf("keys reduced to %v, expected string", key)
	}
	if val != nil {
		t.Fatalf("values reduced to %v, expected dynamic", val)
	}
}

func TestEqualStructShapes(t *testing.T) {
	anonymous := Tuple(Int32())
	named := TupleStruct("T", Int32())
	full := Struct("T", Field{Name: "a", Type: Int32()})
	if Equal(anonymous, named) || Equal(named, full) || Equal(anonymous, full) {
		t.Fatal("the three tuple shapes must not compare equal")
	}
	if !Equal(full, Struct("T", Field{Name: "a", Type: Int32()})) {
		t.Fatal("identical structs must compare equal")
	}
	if Equal(full, Struct("T", Field{Name: "b", Type: Int32()})) {
		t.Fatal("field names participate in equality")
	}
}
