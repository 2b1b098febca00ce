package format

import (
	"encoding/binary"
	"math"
)

const trueBool = 1
const falseBool = 0

// Reader is a cursor over a byte buffer. Read failures do not consume
// input.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the unread tail of the buffer.
func (r *Reader) Remaining() []byte {
	return r.buf[r.off:]
}

func (r *Reader) take(n int) (bytes []byte, err error) {
	if len(r.buf)-r.off < n {
		err = ErrShortRead
		return
	}
	bytes = r.buf[r.off : r.off+n]
	r.off += n
	return
}

func (r *Reader) ReadBool() (val bool, err error) {
	b, err := r.ReadUInt8()
	if err != nil {
		return
	}
	switch b {
	case falseBool:
		val = false
	case trueBool:
		val = true
	default:
		r.off--
		err = &NotABoolValueError{Byte: b}
	}
	return
}

func (r *Reader) ReadUInt8() (val uint8, err error) {
	bytes, err := r.take(1)
	if err != nil {
		return
	}
	val = bytes[0]
	return
}

func (r *Reader) ReadInt8() (val int8, err error) {
	b, err := r.ReadUInt8()
	val = int8(b)
	return
}

func (r *Reader) ReadUInt16() (val uint16, err error) {
	bytes, err := r.take(2)
	if err != nil {
		return
	}
	val = binary.LittleEndian.Uint16(bytes)
	return
}

func (r *Reader) ReadInt16() (val int16, err error) {
	b, err := r.ReadUInt16()
	val = int16(b)
	return
}

func (r *Reader) ReadUInt32() (val uint32, err error) {
	bytes, err := r.take(4)
	if err != nil {
		return
	}
	val = binary.LittleEndian.Uint32(bytes)
	return
}

func (r *Reader) ReadInt32() (val int32, err error) {
	b, err := r.ReadUInt32()
	val = int32(b)
	return
}

func (r *Reader) ReadUInt64() (val uint64, err error) {
	bytes, err := r.take(8)
	if err != nil {
		return
	}
	val = binary.LittleEndian.Uint64(bytes)
	return
}

func (r *Reader) ReadInt64() (val int64, err error) {
	b, err := r.ReadUInt64()
	val = int64(b)
	return
}

func (r *Reader) ReadFloat32() (val float32, err error) {
	b, err := r.ReadUInt32()
	val = math.Float32frombits(b)
	return
}

func (r *Reader) ReadFloat64() (val float64, err error) {
	b, err := r.ReadUInt64()
	val = math.Float64frombits(b)
	return
}

// ReadSize reads a u32 length prefix, checking it fits the host int.
func (r *Reader) ReadSize() (size int, err error) {
	raw, err := r.ReadUInt32()
	if err != nil {
		return
	}
	if uint64(raw) > uint64(maxInt) {
		r.off -= 4
		err = &SizeConversionError{Size: raw}
		return
	}
	size = int(raw)
	return
}

const maxInt = int(^uint(0) >> 1)

// ReadString reads a size-prefixed byte sequence. The bytes are not
// required to be valid UTF-8.
func (r *Reader) ReadString() (val string, err error) {
	bytes, err := r.readSized()
	val = string(bytes)
	return
}

func (r *Reader) ReadRaw() (val []byte, err error) {
	bytes, err := r.readSized()
	if err != nil {
		return
	}
	val = append([]byte(nil), bytes...)
	return
}

func (r *Reader) readSized() (bytes []byte, err error) {
	start := r.off
	size, err := r.ReadSize()
	if err != nil {
		err = &SequenceSizeError{Cause: err}
		return
	}
	bytes, err = r.take(size)
	if err != nil {
		r.off = start
	}
	return
}
