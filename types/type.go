/*
*	The qi type universe: a small algebraic set of types with a textual
*	signature grammar used on the wire for self-describing values.
 */
package types

import (
	"strings"
)

type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindInt8
	KindUInt8
	KindInt16
	KindUInt16
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindFloat32
	KindFloat64
	KindString
	KindRaw
	KindObject
	KindOption
	KindList
	KindVarArgs
	KindMap
	KindTuple
)

// Type describes a value shape. A nil *Type is the dynamic type, the
// set of all types; element pointers inside parametric types follow
// the same convention.
type Type struct {
	Kind  Kind
	Elem  *Type //	Option, List, VarArgs element
	Key   *Type //	Map key
	Value *Type //	Map value
	Tuple *TupleType
}

// TupleType is the payload of a Kind == KindTuple type. Three shapes
// share it: the anonymous tuple (Name == ""), the named tuple struct
// (Name != "", Fields == nil) and the full struct (Fields aligned
// one-to-one with Elements).
type TupleType struct {
	Name     string
	Elements []*Type
	Fields   []string
}

func simple(k Kind) *Type { return &Type{Kind: k} }

func Unit() *Type    { return simple(KindUnit) }
func Bool() *Type    { return simple(KindBool) }
func Int8() *Type    { return simple(KindInt8) }
func UInt8() *Type   { return simple(KindUInt8) }
func Int16() *Type   { return simple(KindInt16) }
func UInt16() *Type  { return simple(KindUInt16) }
func Int32() *Type   { return simple(KindInt32) }
func UInt32() *Type  { return simple(KindUInt32) }
func Int64() *Type   { return simple(KindInt64) }
func UInt64() *Type  { return simple(KindUInt64) }
func Float32() *Type { return simple(KindFloat32) }
func Float64() *Type { return simple(KindFloat64) }
func String() *Type  { return simple(KindString) }
func Raw() *Type     { return simple(KindRaw) }
func Object() *Type  { return simple(KindObject) }

func Option(elem *Type) *Type {
	return &Type{Kind: KindOption, Elem: elem}
}

func List(elem *Type) *Type {
	return &Type{Kind: KindList, Elem: elem}
}

func VarArgs(elem *Type) *Type {
	return &Type{Kind: KindVarArgs, Elem: elem}
}

func Map(key, value *Type) *Type {
	return &Type{Kind: KindMap, Key: key, Value: value}
}

func Tuple(elements ...*Type) *Type {
	return &Type{Kind: KindTuple, Tuple: &TupleType{Elements: elements}}
}

func TupleStruct(name string, elements ...*Type) *Type {
	return &Type{Kind: KindTuple, Tuple: &TupleType{Name: name, Elements: elements}}
}

type Field struct {
	Name string
	Type *Type
}

func Struct(name string, fields ...Field) *Type {
	elements := make([]*Type, len(fields))
	names := make([]string, len(fields))
	for i, f := range fields {
		elements[i] = f.Type
		names[i] = f.Name
	}
	return &Type{Kind: KindTuple, Tuple: &TupleType{Name: name, Elements: elements, Fields: names}}
}

// Equal reports structural equality. Dynamic (nil) equals only
// dynamic.
func Equal(t1, t2 *Type) bool {
	if t1 == nil || t2 == nil {
		return t1 == nil && t2 == nil
	}
	if t1.Kind != t2.Kind {
		return false
	}
	switch t1.Kind {
	case KindOption, KindList, KindVarArgs:
		return Equal(t1.Elem, t2.Elem)
	case KindMap:
		return Equal(t1.Key, t2.Key) && Equal(t1.Value, t2.Value)
	case KindTuple:
		return t1.Tuple.equal(t2.Tuple)
	default:
		return true
	}
}

func (tt *TupleType) equal(other *TupleType) bool {
	if tt.Name != other.Name || len(tt.Elements) != len(other.Elements) {
		return false
	}
	if (tt.Fields == nil) != (other.Fields == nil) {
		return false
	}
	for i := range tt.Elements {
		if !Equal(tt.Elements[i], other.Elements[i]) {
			return false
		}
	}
	for i := range tt.Fields {
		if tt.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// Common returns the unification of two optional types: the common
// type exists only when both are known and equal.
func Common(t1, t2 *Type) *Type {
	if t1 != nil && t2 != nil && Equal(t1, t2) {
		return t1
	}
	return nil
}

// Reduce folds a sequence of element types into the most specific
// common type, or dynamic when the sequence is empty or heterogeneous.
func Reduce(ts []*Type) *Type {
	if len(ts) == 0 {
		return nil
	}
	common := ts[0]
	for _, t := range ts[1:] {
		common = Common(common, t)
	}
	return common
}

// ReduceMap reduces key and value type sequences independently.
func ReduceMap(pairs [][2]*Type) (key, value *Type) {
	if len(pairs) == 0 {
		return nil, nil
	}
	key, value = pairs[0][0], pairs[0][1]
	for _, p := range pairs[1:] {
		key = Common(key, p[0])
		value = Common(value, p[1])
	}
	return
}

func (t *Type) String() string {
	if t == nil {
		return "dynamic"
	}
	switch t.Kind {
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindUInt8:
		return "uint8"
	case KindInt16:
		return "int16"
	case KindUInt16:
		return "uint16"
	case KindInt32:
		return "int32"
	case KindUInt32:
		return "uint32"
	case KindInt64:
		return "int64"
	case KindUInt64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindRaw:
		return "raw"
	case KindObject:
		return "object"
	case KindOption:
		return "option(" + t.Elem.String() + ")"
	case KindList:
		return "list(" + t.Elem.String() + ")"
	case KindVarArgs:
		return "varargs(" + t.Elem.String() + ")"
	case KindMap:
		return "map(" + t.Key.String() + "," + t.Value.String() + ")"
	case KindTuple:
		return t.Tuple.String()
	}
	return "unknown"
}

func (tt *TupleType) String() string {
	var b strings.Builder
	b.WriteString("tuple(")
	for i, e := range tt.Elements {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(e.String())
	}
	b.WriteString(")")
	if tt.Name != "" {
		b.WriteString("<")
		b.WriteString(tt.Name)
		for _, f := range tt.Fields {
			b.WriteString(",")
			b.WriteString(f)
		}
		b.WriteString(">")
	}
	return b.String()
}
