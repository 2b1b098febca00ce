package format

import (
	"fmt"

	"qi.dev/qi/types"
	"qi.dev/qi/value"
)

// Wire signature of a metaobject, fixed by the protocol. Objects embed
// their metaobject, so decoding an object value needs this shape.
const MetaObjectSignature = "({I(Issss[(ss)<MetaMethodParameter,name,description>]s)<MetaMethod,uid,returnSignature,name,parametersSignature,description,parameters,returnDescription>}{I(Iss)<MetaSignal,uid,name,signature>}{I(Iss)<MetaProperty,uid,name,signature>}s)<MetaObject,methods,signals,properties,description>"

var metaObjectType = mustParse(MetaObjectSignature)

func mustParse(signature string) *types.Type {
	t, err := types.Parse(signature)
	if err != nil {
		panic(err)
	}
	return t
}

// ToBytes encodes a single value.
func ToBytes(v value.Value) (buf []byte, err error) {
	w := NewWriter()
	err = Encode(w, v)
	if err != nil {
		return
	}
	buf = w.Bytes()
	return
}

// FromBytes decodes a single value of the expected type, which may be
// nil for dynamic. The whole buffer must be consumed.
func FromBytes(buf []byte, t *types.Type) (v value.Value, err error) {
	r := NewReader(buf)
	v, err = Decode(r, t)
	if err != nil {
		return
	}
	if len(r.Remaining()) != 0 {
		err = &CustomError{Message: fmt.Sprintf("%d trailing bytes after value", len(r.Remaining()))}
	}
	return
}

func Encode(w *Writer, v value.Value) (err error) {
	switch val := v.(type) {
	case value.Unit:
		return
	case value.Bool:
		w.WriteBool(bool(val))
	case value.Int8:
		w.WriteInt8(int8(val))
	case value.UInt8:
		w.WriteUInt8(uint8(val))
	case value.Int16:
		w.WriteInt16(int16(val))
	case value.UInt16:
		w.WriteUInt16(uint16(val))
	case value.Int32:
		w.WriteInt32(int32(val))
	case value.UInt32:
		w.WriteUInt32(uint32(val))
	case value.Int64:
		w.WriteInt64(int64(val))
	case value.UInt64:
		w.WriteUInt64(uint64(val))
	case value.Float32:
		w.WriteFloat32(float32(val))
	case value.Float64:
		w.WriteFloat64(float64(val))
	case value.String:
		err = w.WriteString(string(val))
	case value.Raw:
		err = w.WriteRaw(val)
	case value.Option:
		if val.Elem == nil {
			w.WriteBool(false)
			return
		}
		w.WriteBool(true)
		err = Encode(w, val.Elem)
	case value.List:
		err = w.WriteSize(len(val))
		if err != nil {
			return
		}
		for _, elem := range val {
			err = Encode(w, elem)
			if err != nil {
				return
			}
		}
	case value.Map:
		err = w.WriteSize(len(val))
		if err != nil {
			return
		}
		for i, entry := range val {
			err = Encode(w, entry.Key)
			if err != nil {
				err = &MapKeyError{Index: i, Cause: err}
				return
			}
			err = Encode(w, entry.Value)
			if err != nil {
				err = &MapValueError{Index: i, Cause: err}
				return
			}
		}
	case value.Tuple:
		//	tuples carry no length prefix; arity comes from the type
		for _, elem := range val.Elements {
			err = Encode(w, elem)
			if err != nil {
				return
			}
		}
	case value.Object:
		err = Encode(w, val.MetaObject)
		if err != nil {
			return
		}
		w.WriteUInt32(val.ServiceID)
		w.WriteUInt32(val.ObjectID)
		w.buf.Write(val.UID[:])
	case value.Dynamic:
		var inner value.Value = value.Unit{}
		if val.Value != nil {
			inner = val.Value
		}
		err = w.WriteString(inner.Type().Signature())
		if err != nil {
			return
		}
		err = Encode(w, inner)
	default:
		err = &UnknownElementError{What: fmt.Sprintf("%T has no wire encoding", v)}
	}
	return
}

func Decode(r *Reader, t *types.Type) (v value.Value, err error) {
	if t == nil {
		return decodeDynamic(r)
	}
	switch t.Kind {
	case types.KindUnit:
		v = value.Unit{}
	case types.KindBool:
		var b bool
		b, err = r.ReadBool()
		v = value.Bool(b)
	case types.KindInt8:
		var n int8
		n, err = r.ReadInt8()
		v = value.Int8(n)
	case types.KindUInt8:
		var n uint8
		n, err = r.ReadUInt8()
		v = value.UInt8(n)
	case types.KindInt16:
		var n int16
		n, err = r.ReadInt16()
		v = value.Int16(n)
	case types.KindUInt16:
		var n uint16
		n, err = r.ReadUInt16()
		v = value.UInt16(n)
	case types.KindInt32:
		var n int32
		n, err = r.ReadInt32()
		v = value.Int32(n)
	case types.KindUInt32:
		var n uint32
		n, err = r.ReadUInt32()
		v = value.UInt32(n)
	case types.KindInt64:
		var n int64
		n, err = r.ReadInt64()
		v = value.Int64(n)
	case types.KindUInt64:
		var n uint64
		n, err = r.ReadUInt64()
		v = value.UInt64(n)
	case types.KindFloat32:
		var f float32
		f, err = r.ReadFloat32()
		v = value.Float32(f)
	case types.KindFloat64:
		var f float64
		f, err = r.ReadFloat64()
		v = value.Float64(f)
	case types.KindString:
		var s string
		s, err = r.ReadString()
		v = value.String(s)
	case types.KindRaw:
		var raw []byte
		raw, err = r.ReadRaw()
		v = value.Raw(raw)
	case types.KindOption:
		var present bool
		present, err = r.ReadBool()
		if err != nil {
			return
		}
		if !present {
			v = value.Option{}
			return
		}
		var elem value.Value
		elem, err = Decode(r, t.Elem)
		v = value.Option{Elem: elem}
	case types.KindList, types.KindVarArgs:
		var size int
		size, err = r.ReadSize()
		if err != nil {
			err = &SequenceSizeError{Cause: err}
			return
		}
		list := make(value.List, 0, size)
		for i := 0; i < size; i++ {
			var elem value.Value
			elem, err = Decode(r, t.Elem)
			if err != nil {
				return
			}
			list = append(list, elem)
		}
		v = list
	case types.KindMap:
		var size int
		size, err = r.ReadSize()
		if err != nil {
			err = &SequenceSizeError{Cause: err}
			return
		}
		entries := make(value.Map, 0, size)
		for i := 0; i < size; i++ {
			var key, val value.Value
			key, err = Decode(r, t.Key)
			if err != nil {
				err = &MapKeyError{Index: i, Cause: err}
				return
			}
			val, err = Decode(r, t.Value)
			if err != nil {
				err = &MapValueError{Index: i, Cause: err}
				return
			}
			entries.Set(key, val)
		}
		v = entries
	case types.KindTuple:
		tuple := value.Tuple{Name: t.Tuple.Name}
		if t.Tuple.Fields != nil {
			tuple.Fields = append([]string(nil), t.Tuple.Fields...)
		}
		for _, elemType := range t.Tuple.Elements {
			var elem value.Value
			elem, err = Decode(r, elemType)
			if err != nil {
				return
			}
			tuple.Elements = append(tuple.Elements, elem)
		}
		v = tuple
	case types.KindObject:
		var meta value.Value
		meta, err = Decode(r, metaObjectType)
		if err != nil {
			return
		}
		obj := value.Object{MetaObject: meta}
		obj.ServiceID, err = r.ReadUInt32()
		if err != nil {
			return
		}
		obj.ObjectID, err = r.ReadUInt32()
		if err != nil {
			return
		}
		var uid []byte
		uid, err = r.take(len(obj.UID))
		if err != nil {
			return
		}
		copy(obj.UID[:], uid)
		v = obj
	default:
		err = &UnknownElementError{What: fmt.Sprintf("type %v has no wire decoding", t)}
	}
	return
}

func decodeDynamic(r *Reader) (v value.Value, err error) {
	signature, err := r.ReadString()
	if err != nil {
		return
	}
	t, parseErr := types.Parse(signature)
	if parseErr != nil {
		err = &CustomError{Message: fmt.Sprintf("bad embedded signature %q: %s", signature, parseErr.Error())}
		return
	}
	inner, err := Decode(r, t)
	if err != nil {
		return
	}
	v = value.Dynamic{Value: inner}
	return
}
