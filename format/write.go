package format

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer accumulates the little-endian encoding of values.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) WriteBool(val bool) {
	if val {
		w.buf.WriteByte(trueBool)
	} else {
		w.buf.WriteByte(falseBool)
	}
}

func (w *Writer) WriteUInt8(val uint8) {
	w.buf.WriteByte(val)
}

func (w *Writer) WriteInt8(val int8) {
	w.buf.WriteByte(uint8(val))
}

func (w *Writer) WriteUInt16(val uint16) {
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], val)
	w.buf.Write(scratch[:])
}

func (w *Writer) WriteInt16(val int16) {
	w.WriteUInt16(uint16(val))
}

func (w *Writer) WriteUInt32(val uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], val)
	w.buf.Write(scratch[:])
}

func (w *Writer) WriteInt32(val int32) {
	w.WriteUInt32(uint32(val))
}

func (w *Writer) WriteUInt64(val uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], val)
	w.buf.Write(scratch[:])
}

func (w *Writer) WriteInt64(val int64) {
	w.WriteUInt64(uint64(val))
}

func (w *Writer) WriteFloat32(val float32) {
	w.WriteUInt32(math.Float32bits(val))
}

func (w *Writer) WriteFloat64(val float64) {
	w.WriteUInt64(math.Float64bits(val))
}

func (w *Writer) WriteSize(size int) (err error) {
	if size < 0 || uint64(size) > math.MaxUint32 {
		return &SizeConversionError{Size: math.MaxUint32}
	}
	w.WriteUInt32(uint32(size))
	return
}

func (w *Writer) WriteString(val string) (err error) {
	err = w.WriteSize(len(val))
	if err != nil {
		return
	}
	w.buf.WriteString(val)
	return
}

func (w *Writer) WriteRaw(val []byte) (err error) {
	err = w.WriteSize(len(val))
	if err != nil {
		return
	}
	w.buf.Write(val)
	return
}
