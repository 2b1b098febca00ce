package format

import (
	"bytes"
	"math"
	"testing"
)

func TestWriteBool(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	w.WriteBool(false)
	if !bytes.Equal(w.Bytes(), []byte{1, 0}) {
		t.Fatalf("got %v", w.Bytes())
	}
}

func TestWriteIntegers(t *testing.T) {
	w := NewWriter()
	w.WriteInt8(-2)
	w.WriteInt16(-2)
	w.WriteInt32(-2)
	w.WriteInt64(-2)
	expected := []byte{
		254,
		254, 255,
		254, 255, 255, 255,
		254, 255, 255, 255, 255, 255, 255, 255,
	}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Fatalf("got %v", w.Bytes())
	}

	w = NewWriter()
	w.WriteUInt16(2)
	w.WriteUInt32(2)
	w.WriteUInt64(2)
	expected = []byte{
		2, 0,
		2, 0, 0, 0,
		2, 0, 0, 0, 0, 0, 0, 0,
	}
	if !bytes.Equal(w.Bytes(), expected) {
		t.Fatalf("got %v", w.Bytes())
	}
}

func TestWriteFloats(t *testing.T) {
	w := NewWriter()
	w.WriteFloat32(1.0)
	if !bytes.Equal(w.Bytes(), []byte{0, 0, 128, 63}) {
		t.Fatalf("got %v", w.Bytes())
	}
	w = NewWriter()
	w.WriteFloat32(float32(math.Inf(-1)))
	if !bytes.Equal(w.Bytes(), []byte{0x00, 0x00, 0x80, 0xff}) {
		t.Fatalf("got %v", w.Bytes())
	}
	w = NewWriter()
	w.WriteFloat64(1.0)
	if !bytes.Equal(w.Bytes(), []byte{0, 0, 0, 0, 0, 0, 240, 63}) {
		t.Fatalf("got %v", w.Bytes())
	}
}

func TestWriteString(t *testing.T) {
	w := NewWriter()
	if err := w.WriteString("abc"); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w.Bytes(), []byte{3, 0, 0, 0, 97, 98, 99}) {
		t.Fatalf("got %v", w.Bytes())
	}
}

func TestWriteRaw(t *testing.T) {
	w := NewWriter()
	if err := w.WriteRaw([]byte{1, 11, 111}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w.Bytes(), []byte{3, 0, 0, 0, 1, 11, 111}) {
		t.Fatalf("got %v", w.Bytes())
	}
}
