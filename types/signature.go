package types

import (
	"fmt"
	"strings"
)

// Signature characters, one per type constructor.
const (
	sigUnit      = 'v'
	sigBool      = 'b'
	sigInt8      = 'c'
	sigUInt8     = 'C'
	sigInt16     = 'w'
	sigUInt16    = 'W'
	sigInt32     = 'i'
	sigUInt32    = 'I'
	sigInt64     = 'l'
	sigUInt64    = 'L'
	sigFloat32   = 'f'
	sigFloat64   = 'd'
	sigString    = 's'
	sigRaw       = 'r'
	sigObject    = 'o'
	sigDynamic   = 'm'
	sigOption    = '+'
	sigVarArgs   = '#'
	sigListBegin = '['
	sigListEnd   = ']'
	sigMapBegin  = '{'
	sigMapEnd    = '}'
	sigTupBegin  = '('
	sigTupEnd    = ')'
	sigAnnBegin  = '<'
	sigAnnEnd    = '>'
)

type ParseErrorKind int

const (
	ErrEndOfInput ParseErrorKind = iota
	ErrUnexpectedChar
	ErrMissingOptionValueType
	ErrMissingVarArgsValueType
	ErrMissingListValueType
	ErrMissingListEnd
	ErrMissingMapKeyType
	ErrMissingMapValueType
	ErrMissingMapEnd
	ErrMissingTupleEnd
	ErrMissingAnnotationEnd
	ErrAnnotationChar
	ErrBadAnnotationLength
)

// ParseError is a structured signature parse failure. Input holds the
// remaining input at the point of the error; Cause holds the nested
// element failure when the error occurred inside a subtype.
type ParseError struct {
	Kind      ParseErrorKind
	Char      byte
	Input     string
	NameCount int //	for ErrBadAnnotationLength
	ElemCount int
	Cause     *ParseError
}

func (e *ParseError) Error() string {
	var what string
	switch e.Kind {
	case ErrEndOfInput:
		return "end of input"
	case ErrUnexpectedChar:
		return fmt.Sprintf("unexpected character %q in input %q", e.Char, e.Input)
	case ErrMissingOptionValueType:
		what = "missing option value type"
	case ErrMissingVarArgsValueType:
		what = "missing varargs value type"
	case ErrMissingListValueType:
		what = "missing list value type"
	case ErrMissingListEnd:
		what = "missing list end"
	case ErrMissingMapKeyType:
		what = "missing map key type"
	case ErrMissingMapValueType:
		what = "missing map value type"
	case ErrMissingMapEnd:
		what = "missing map end"
	case ErrMissingTupleEnd:
		what = "missing tuple end"
	case ErrMissingAnnotationEnd:
		what = "missing tuple annotation end"
	case ErrAnnotationChar:
		return fmt.Sprintf("unexpected character %q in annotation %q", e.Char, e.Input)
	case ErrBadAnnotationLength:
		return fmt.Sprintf("annotation has %d field names for %d tuple elements in %q",
			e.NameCount, e.ElemCount, e.Input)
	default:
		what = "signature parse error"
	}
	msg := fmt.Sprintf("%s in input %q", what, e.Input)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Root returns the innermost nested cause.
func (e *ParseError) Root() *ParseError {
	for e.Cause != nil {
		e = e.Cause
	}
	return e
}

// Signature renders the type in the wire signature grammar. The
// dynamic type (nil receiver) renders as "m".
func (t *Type) Signature() string {
	var b strings.Builder
	writeSignature(&b, t)
	return b.String()
}

func writeSignature(b *strings.Builder, t *Type) {
	if t == nil {
		b.WriteByte(sigDynamic)
		return
	}
	switch t.Kind {
	case KindUnit:
		b.WriteByte(sigUnit)
	case KindBool:
		b.WriteByte(sigBool)
	case KindInt8:
		b.WriteByte(sigInt8)
	case KindUInt8:
		b.WriteByte(sigUInt8)
	case KindInt16:
		b.WriteByte(sigInt16)
	case KindUInt16:
		b.WriteByte(sigUInt16)
	case KindInt32:
		b.WriteByte(sigInt32)
	case KindUInt32:
		b.WriteByte(sigUInt32)
	case KindInt64:
		b.WriteByte(sigInt64)
	case KindUInt64:
		b.WriteByte(sigUInt64)
	case KindFloat32:
		b.WriteByte(sigFloat32)
	case KindFloat64:
		b.WriteByte(sigFloat64)
	case KindString:
		b.WriteByte(sigString)
	case KindRaw:
		b.WriteByte(sigRaw)
	case KindObject:
		b.WriteByte(sigObject)
	case KindOption:
		b.WriteByte(sigOption)
		writeSignature(b, t.Elem)
	case KindVarArgs:
		b.WriteByte(sigVarArgs)
		writeSignature(b, t.Elem)
	case KindList:
		b.WriteByte(sigListBegin)
		writeSignature(b, t.Elem)
		b.WriteByte(sigListEnd)
	case KindMap:
		b.WriteByte(sigMapBegin)
		writeSignature(b, t.Key)
		writeSignature(b, t.Value)
		b.WriteByte(sigMapEnd)
	case KindTuple:
		b.WriteByte(sigTupBegin)
		for _, e := range t.Tuple.Elements {
			writeSignature(b, e)
		}
		b.WriteByte(sigTupEnd)
		if t.Tuple.Name != "" {
			b.WriteByte(sigAnnBegin)
			b.WriteString(t.Tuple.Name)
			for _, f := range t.Tuple.Fields {
				b.WriteByte(',')
				b.WriteString(f)
			}
			b.WriteByte(sigAnnEnd)
		}
	}
}

// Parse reads one complete type from a signature string. The whole
// input must be consumed.
func Parse(signature string) (t *Type, err error) {
	cursor := signature
	t, perr := parseType(&cursor)
	if perr != nil {
		return nil, perr
	}
	if cursor != "" {
		return nil, &ParseError{Kind: ErrUnexpectedChar, Char: cursor[0], Input: cursor}
	}
	return t, nil
}

// parseType consumes one type production from the cursor. A nil type
// with nil error is the dynamic type.
func parseType(cursor *string) (*Type, *ParseError) {
	input := *cursor
	if input == "" {
		return nil, &ParseError{Kind: ErrEndOfInput, Input: input}
	}
	c := input[0]
	rest := input[1:]
	switch c {
	case sigUnit:
		*cursor = rest
		return Unit(), nil
	case sigBool:
		*cursor = rest
		return Bool(), nil
	case sigInt8:
		*cursor = rest
		return Int8(), nil
	case sigUInt8:
		*cursor = rest
		return UInt8(), nil
	case sigInt16:
		*cursor = rest
		return Int16(), nil
	case sigUInt16:
		*cursor = rest
		return UInt16(), nil
	case sigInt32:
		*cursor = rest
		return Int32(), nil
	case sigUInt32:
		*cursor = rest
		return UInt32(), nil
	case sigInt64:
		*cursor = rest
		return Int64(), nil
	case sigUInt64:
		*cursor = rest
		return UInt64(), nil
	case sigFloat32:
		*cursor = rest
		return Float32(), nil
	case sigFloat64:
		*cursor = rest
		return Float64(), nil
	case sigString:
		*cursor = rest
		return String(), nil
	case sigRaw:
		*cursor = rest
		return Raw(), nil
	case sigObject:
		*cursor = rest
		return Object(), nil
	case sigDynamic:
		*cursor = rest
		return nil, nil
	case sigOption:
		*cursor = rest
		if *cursor == "" {
			return nil, &ParseError{Kind: ErrMissingOptionValueType, Input: input}
		}
		elem, err := parseType(cursor)
		if err != nil {
			return nil, &ParseError{Kind: ErrMissingOptionValueType, Input: input, Cause: err}
		}
		return Option(elem), nil
	case sigVarArgs:
		*cursor = rest
		if *cursor == "" {
			return nil, &ParseError{Kind: ErrMissingVarArgsValueType, Input: input}
		}
		elem, err := parseType(cursor)
		if err != nil {
			return nil, &ParseError{Kind: ErrMissingVarArgsValueType, Input: input, Cause: err}
		}
		return VarArgs(elem), nil
	case sigListBegin:
		*cursor = rest
		if *cursor == "" || (*cursor)[0] == sigListEnd {
			return nil, &ParseError{Kind: ErrMissingListValueType, Input: input}
		}
		elem, err := parseType(cursor)
		if err != nil {
			return nil, &ParseError{Kind: ErrMissingListValueType, Input: input, Cause: err}
		}
		if *cursor == "" || (*cursor)[0] != sigListEnd {
			return nil, &ParseError{Kind: ErrMissingListEnd, Input: input}
		}
		*cursor = (*cursor)[1:]
		return List(elem), nil
	case sigMapBegin:
		*cursor = rest
		if *cursor == "" || (*cursor)[0] == sigMapEnd {
			return nil, &ParseError{Kind: ErrMissingMapKeyType, Input: input}
		}
		key, err := parseType(cursor)
		if err != nil {
			return nil, &ParseError{Kind: ErrMissingMapKeyType, Input: input, Cause: err}
		}
		if *cursor == "" || (*cursor)[0] == sigMapEnd {
			return nil, &ParseError{Kind: ErrMissingMapValueType, Input: input}
		}
		value, err := parseType(cursor)
		if err != nil {
			return nil, &ParseError{Kind: ErrMissingMapValueType, Input: input, Cause: err}
		}
		if *cursor == "" || (*cursor)[0] != sigMapEnd {
			return nil, &ParseError{Kind: ErrMissingMapEnd, Input: input}
		}
		*cursor = (*cursor)[1:]
		return Map(key, value), nil
	case sigTupBegin:
		*cursor = rest
		var elements []*Type
		for {
			if *cursor == "" {
				return nil, &ParseError{Kind: ErrMissingTupleEnd, Input: input}
			}
			if (*cursor)[0] == sigTupEnd {
				*cursor = (*cursor)[1:]
				break
			}
			elem, err := parseType(cursor)
			if err != nil {
				return nil, err
			}
			elements = append(elements, elem)
		}
		return parseAnnotations(cursor, input, elements)
	}
	return nil, &ParseError{Kind: ErrUnexpectedChar, Char: c, Input: input}
}

// parseAnnotations reads the optional <Name,field,…> suffix of a
// tuple. An annotation with an empty name degrades to a plain tuple;
// one with a name but no field names is a tuple struct.
func parseAnnotations(cursor *string, tupleInput string, elements []*Type) (*Type, *ParseError) {
	if *cursor == "" || (*cursor)[0] != sigAnnBegin {
		return Tuple(elements...), nil
	}
	ann := *cursor
	end := -1
	for i := 1; i < len(ann); i++ {
		c := ann[i]
		if c == sigAnnEnd {
			end = i
			break
		}
		if !isAnnotationChar(c) {
			return nil, &ParseError{Kind: ErrAnnotationChar, Char: c, Input: ann}
		}
	}
	if end < 0 {
		return nil, &ParseError{Kind: ErrMissingAnnotationEnd, Input: tupleInput}
	}
	*cursor = ann[end+1:]
	parts := strings.Split(ann[1:end], ",")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Tuple(elements...), nil
	}
	if len(parts) == 1 {
		return TupleStruct(name, elements...), nil
	}
	fieldNames := parts[1:]
	if len(fieldNames) != len(elements) {
		return nil, &ParseError{
			Kind:      ErrBadAnnotationLength,
			Input:     ann[:end+1],
			NameCount: len(fieldNames),
			ElemCount: len(elements),
		}
	}
	fields := make([]Field, len(elements))
	for i := range elements {
		fields[i] = Field{Name: strings.TrimSpace(fieldNames[i]), Type: elements[i]}
	}
	return Struct(name, fields...), nil
}

func isAnnotationChar(c byte) bool {
	return c == ' ' || c == ',' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
