package value

import (
	"fmt"
	"reflect"
	"sort"
	"unicode"
	"unicode/utf8"
)

//	Structural conversion between Go values and qi values.
//
//	Struct fields map to named-struct tuples; the wire field name is the
//	Go field name with its first rune lowered, overridable with a
//	`qi:"name"` tag (`qi:"-"` skips the field).

type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("go type %v has no qi value form", e.Type)
}

type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func mismatch(target reflect.Type, v Value) error {
	return &TypeMismatchError{Expected: target.String(), Actual: v.Type().Signature()}
}

// ToValue converts a Go value into its qi value form.
func ToValue(v interface{}) (Value, error) {
	if v == nil {
		return Unit{}, nil
	}
	if qv, ok := v.(Value); ok {
		return qv, nil
	}
	return toValue(reflect.ValueOf(v))
}

func toValue(rv reflect.Value) (Value, error) {
	if rv.Type().Implements(valueInterfaceType) {
		return rv.Interface().(Value), nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int8:
		return Int8(rv.Int()), nil
	case reflect.Int16:
		return Int16(rv.Int()), nil
	case reflect.Int32:
		return Int32(rv.Int()), nil
	case reflect.Int, reflect.Int64:
		return Int64(rv.Int()), nil
	case reflect.Uint8:
		return UInt8(rv.Uint()), nil
	case reflect.Uint16:
		return UInt16(rv.Uint()), nil
	case reflect.Uint32:
		return UInt32(rv.Uint()), nil
	case reflect.Uint, reflect.Uint64:
		return UInt64(rv.Uint()), nil
	case reflect.Float32:
		return Float32(rv.Float()), nil
	case reflect.Float64:
		return Float64(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Ptr:
		if rv.IsNil() {
			return Option{}, nil
		}
		inner, err := toValue(rv.Elem())
		if err != nil {
			return nil, err
		}
		return Option{Elem: inner}, nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			raw := make(Raw, rv.Len())
			reflect.Copy(reflect.ValueOf(raw), rv)
			return raw, nil
		}
		fallthrough
	case reflect.Array:
		if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
			raw := make(Raw, rv.Len())
			reflect.Copy(reflect.ValueOf(raw), rv)
			return raw, nil
		}
		list := make(List, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := toValue(rv.Index(i))
			if err != nil {
				return nil, err
			}
			list[i] = elem
		}
		return list, nil
	case reflect.Map:
		//	Go maps have no insertion order; sort keys by value order so
		//	the encoding is deterministic.
		entries := make(Map, 0, rv.Len())
		iter := rv.MapKeys()
		converted := make([]MapEntry, 0, len(iter))
		for _, key := range iter {
			k, err := toValue(key)
			if err != nil {
				return nil, err
			}
			v, err := toValue(rv.MapIndex(key))
			if err != nil {
				return nil, err
			}
			converted = append(converted, MapEntry{Key: k, Value: v})
		}
		sort.Slice(converted, func(i, j int) bool {
			return Cmp(converted[i].Key, converted[j].Key) < 0
		})
		entries = append(entries, converted...)
		return entries, nil
	case reflect.Struct:
		return structToValue(rv)
	case reflect.Interface:
		if rv.IsNil() {
			return Unit{}, nil
		}
		return toValue(rv.Elem())
	}
	return nil, &UnsupportedTypeError{Type: rv.Type()}
}

func structToValue(rv reflect.Value) (Value, error) {
	rt := rv.Type()
	tuple := Tuple{Name: rt.Name()}
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue //	unexported
		}
		name := fieldName(field)
		if name == "" {
			continue
		}
		elem, err := toValue(rv.Field(i))
		if err != nil {
			return nil, err
		}
		tuple.Fields = append(tuple.Fields, name)
		tuple.Elements = append(tuple.Elements, elem)
	}
	if tuple.Name == "" {
		//	anonymous struct types cannot carry a struct annotation
		tuple.Fields = nil
	}
	return tuple, nil
}

func fieldName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("qi"); ok {
		if tag == "-" {
			return ""
		}
		return tag
	}
	r, size := utf8.DecodeRuneInString(field.Name)
	return string(unicode.ToLower(r)) + field.Name[size:]
}

var valueInterfaceType = reflect.TypeOf((*Value)(nil)).Elem()

// FromValue converts a qi value back into the Go value pointed to by
// out. Three tolerances apply: an empty tuple converts to any unit
// shape, a one-element tuple is interchangeable with its element, and
// maps convert to sequences of two-element tuples and back.
func FromValue(v Value, out interface{}) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("conversion target must be a non-nil pointer, got %T", out)
	}
	return fromValue(v, rv.Elem())
}

func fromValue(v Value, target reflect.Value) error {
	if d, ok := v.(Dynamic); ok {
		if target.Type() == reflect.TypeOf(Dynamic{}) {
			target.Set(reflect.ValueOf(d))
			return nil
		}
		v = d.Value
	}
	if target.Kind() == reflect.Interface && valueInterfaceType.Implements(target.Type()) {
		target.Set(reflect.ValueOf(v))
		return nil
	}
	if reflect.TypeOf(v) == target.Type() {
		target.Set(reflect.ValueOf(v))
		return nil
	}
	//	newtype tolerance: unwrap one-element tuples when the target is
	//	not itself a tuple shape
	if tuple, ok := v.(Tuple); ok && len(tuple.Elements) == 1 && target.Kind() != reflect.Struct {
		return fromValue(tuple.Elements[0], target)
	}
	switch target.Kind() {
	case reflect.Bool:
		if b, ok := v.(Bool); ok {
			target.SetBool(bool(b))
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, ok := intOf(v); ok {
			if target.OverflowInt(n) {
				return mismatch(target.Type(), v)
			}
			target.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, ok := uintOf(v); ok {
			if target.OverflowUint(n) {
				return mismatch(target.Type(), v)
			}
			target.SetUint(n)
			return nil
		}
	case reflect.Float32, reflect.Float64:
		switch f := v.(type) {
		case Float32:
			target.SetFloat(float64(f))
			return nil
		case Float64:
			target.SetFloat(float64(f))
			return nil
		}
	case reflect.String:
		if s, ok := v.(String); ok {
			target.SetString(string(s))
			return nil
		}
	case reflect.Ptr:
		if opt, ok := v.(Option); ok {
			if opt.Elem == nil {
				target.Set(reflect.Zero(target.Type()))
				return nil
			}
			inner := reflect.New(target.Type().Elem())
			if err := fromValue(opt.Elem, inner.Elem()); err != nil {
				return err
			}
			target.Set(inner)
			return nil
		}
		inner := reflect.New(target.Type().Elem())
		if err := fromValue(v, inner.Elem()); err != nil {
			return err
		}
		target.Set(inner)
		return nil
	case reflect.Slice:
		if target.Type().Elem().Kind() == reflect.Uint8 {
			switch raw := v.(type) {
			case Raw:
				target.SetBytes(append([]byte(nil), raw...))
				return nil
			case String:
				target.SetBytes([]byte(raw))
				return nil
			}
			break
		}
		switch seq := v.(type) {
		case List:
			return sliceFromValues(seq, target)
		case Map:
			//	map ↔ sequence of two-element tuples
			pairs := make(List, len(seq))
			for i, e := range seq {
				pairs[i] = Tuple{Elements: []Value{e.Key, e.Value}}
			}
			return sliceFromValues(pairs, target)
		}
	case reflect.Map:
		entries, ok := v.(Map)
		if !ok {
			if seq, isList := v.(List); isList {
				entries = make(Map, 0, len(seq))
				for _, elem := range seq {
					pair, isTuple := elem.(Tuple)
					if !isTuple || len(pair.Elements) != 2 {
						return mismatch(target.Type(), v)
					}
					entries.Set(pair.Elements[0], pair.Elements[1])
				}
			} else {
				break
			}
		}
		result := reflect.MakeMapWithSize(target.Type(), len(entries))
		for _, e := range entries {
			key := reflect.New(target.Type().Key())
			if err := fromValue(e.Key, key.Elem()); err != nil {
				return err
			}
			val := reflect.New(target.Type().Elem())
			if err := fromValue(e.Value, val.Elem()); err != nil {
				return err
			}
			result.SetMapIndex(key.Elem(), val.Elem())
		}
		target.Set(result)
		return nil
	case reflect.Struct:
		return structFromValue(v, target)
	}
	switch tuple := v.(type) {
	case Unit:
		if isZeroSized(target) {
			return nil
		}
	case Tuple:
		//	unit tolerance: an empty tuple converts into any unit shape
		if len(tuple.Elements) == 0 && isZeroSized(target) {
			return nil
		}
	}
	return mismatch(target.Type(), v)
}

func isZeroSized(target reflect.Value) bool {
	return target.Kind() == reflect.Struct && target.NumField() == 0
}

func sliceFromValues(seq List, target reflect.Value) error {
	result := reflect.MakeSlice(target.Type(), len(seq), len(seq))
	for i, elem := range seq {
		if err := fromValue(elem, result.Index(i)); err != nil {
			return err
		}
	}
	target.Set(result)
	return nil
}

func structFromValue(v Value, target reflect.Value) error {
	rt := target.Type()
	if rt.NumField() == 0 {
		//	unit tolerance
		switch tv := v.(type) {
		case Unit:
			return nil
		case Tuple:
			if len(tv.Elements) == 0 {
				return nil
			}
		}
		return mismatch(rt, v)
	}
	tuple, ok := v.(Tuple)
	if !ok {
		//	newtype tolerance: a single-field struct accepts its bare
		//	element
		if fields := exportedFields(rt); len(fields) == 1 {
			return fromValue(v, target.Field(fields[0]))
		}
		return mismatch(rt, v)
	}
	fields := exportedFields(rt)
	if len(tuple.Elements) != len(fields) {
		return mismatch(rt, v)
	}
	//	align by field name when both sides carry names, else by order
	if tuple.Fields != nil {
		byName := map[string]int{}
		for _, i := range fields {
			byName[fieldName(rt.Field(i))] = i
		}
		aligned := true
		for _, name := range tuple.Fields {
			if _, found := byName[name]; !found {
				aligned = false
				break
			}
		}
		if aligned {
			for pos, name := range tuple.Fields {
				if err := fromValue(tuple.Elements[pos], target.Field(byName[name])); err != nil {
					return err
				}
			}
			return nil
		}
	}
	for pos, i := range fields {
		if err := fromValue(tuple.Elements[pos], target.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

func exportedFields(rt reflect.Type) (indexes []int) {
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.PkgPath != "" {
			continue
		}
		if tag, ok := field.Tag.Lookup("qi"); ok && tag == "-" {
			continue
		}
		indexes = append(indexes, i)
	}
	return
}

func intOf(v Value) (int64, bool) {
	switch n := v.(type) {
	case Int8:
		return int64(n), true
	case Int16:
		return int64(n), true
	case Int32:
		return int64(n), true
	case Int64:
		return int64(n), true
	case UInt8:
		return int64(n), true
	case UInt16:
		return int64(n), true
	case UInt32:
		return int64(n), true
	case UInt64:
		return int64(n), true
	}
	return 0, false
}

func uintOf(v Value) (uint64, bool) {
	switch n := v.(type) {
	case UInt8:
		return uint64(n), true
	case UInt16:
		return uint64(n), true
	case UInt32:
		return uint64(n), true
	case UInt64:
		return uint64(n), true
	case Int8:
		if n >= 0 {
			return uint64(n), true
		}
	case Int16:
		if n >= 0 {
			return uint64(n), true
		}
	case Int32:
		if n >= 0 {
			return uint64(n), true
		}
	case Int64:
		if n >= 0 {
			return uint64(n), true
		}
	}
	return 0, false
}
