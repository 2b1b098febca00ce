/*
*	The qi binary value format: little-endian, size-prefixed sequences,
*	length-prefix-less tuples. Decoding always needs the expected type,
*	or the dynamic type, whose values carry their own signature.
 */
package format

import (
	"fmt"
)

var ErrShortRead = fmt.Errorf("short read: not enough bytes to decode value")

type NotABoolValueError struct {
	Byte uint8
}

func (e *NotABoolValueError) Error() string {
	return fmt.Sprintf("byte %#x is not a boolean value", e.Byte)
}

// SequenceSizeError is a failure to read the size prefix of a string,
// raw, list or map.
type SequenceSizeError struct {
	Cause error
}

func (e *SequenceSizeError) Error() string {
	return fmt.Sprintf("sequence size error: %s", e.Cause.Error())
}

// SizeConversionError reports a size prefix that does not fit the host
// int, which can happen on 32-bit hosts.
type SizeConversionError struct {
	Size uint32
}

func (e *SizeConversionError) Error() string {
	return fmt.Sprintf("size %d overflows the host integer size", e.Size)
}

type MapKeyError struct {
	Index int
	Cause error
}

func (e *MapKeyError) Error() string {
	return fmt.Sprintf("map key %d: %s", e.Index, e.Cause.Error())
}

type MapValueError struct {
	Index int
	Cause error
}

func (e *MapValueError) Error() string {
	return fmt.Sprintf("map value %d: %s", e.Index, e.Cause.Error())
}

// UnknownElementError reports a value that the declared type cannot
// describe, such as an element of a kind the format has no encoding
// for.
type UnknownElementError struct {
	What string
}

func (e *UnknownElementError) Error() string {
	return fmt.Sprintf("unknown element: %s", e.What)
}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}
