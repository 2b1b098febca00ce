package format

import (
	"bytes"
	"testing"
)

func TestReadBool(t *testing.T) {
	r := NewReader([]byte{0, 1, 2})
	if v, err := r.ReadBool(); err != nil || v {
		t.Fatal("expected false")
	}
	if v, err := r.ReadBool(); err != nil || !v {
		t.Fatal("expected true")
	}
	_, err := r.ReadBool()
	notABool, ok := err.(*NotABoolValueError)
	if !ok || notABool.Byte != 2 {
		t.Fatalf("expected NotABoolValueError(2), got %v", err)
	}
	r = NewReader(nil)
	if _, err := r.ReadBool(); err != ErrShortRead {
		t.Fatalf("expected short read, got %v", err)
	}
}

func TestReadIntegers(t *testing.T) {
	r := NewReader([]byte{254, 255, 253, 255, 1})
	if v, err := r.ReadInt16(); err != nil || v != -2 {
		t.Fatalf("got %d, %v", v, err)
	}
	if v, err := r.ReadInt16(); err != nil || v != -3 {
		t.Fatalf("got %d, %v", v, err)
	}
	if _, err := r.ReadInt16(); err != ErrShortRead {
		t.Fatalf("expected short read, got %v", err)
	}

	r = NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if v, err := r.ReadUInt32(); err != nil || v != 50462976 {
		t.Fatalf("got %d, %v", v, err)
	}
	if v, err := r.ReadUInt32(); err != nil || v != 117835012 {
		t.Fatalf("got %d, %v", v, err)
	}
	if _, err := r.ReadUInt32(); err != ErrShortRead {
		t.Fatalf("expected short read, got %v", err)
	}

	r = NewReader([]byte{255, 255, 255, 255, 255, 255, 255, 255})
	if v, err := r.ReadInt64(); err != nil || v != -1 {
		t.Fatalf("got %d, %v", v, err)
	}
}

func TestReadFloats(t *testing.T) {
	r := NewReader([]byte{0x14, 0xae, 0x29, 0x42})
	if v, err := r.ReadFloat32(); err != nil || v != 42.42 {
		t.Fatalf("got %f, %v", v, err)
	}
	r = NewReader([]byte{0xf6, 0x28, 0x5c, 0x8f, 0xc2, 0x35, 0x45, 0x40})
	if v, err := r.ReadFloat64(); err != nil || v != 42.42 {
		t.Fatalf("got %f, %v", v, err)
	}
}

func TestReadString(t *testing.T) {
	r := NewReader([]byte{3, 0, 0, 0, 0x61, 0x62, 0x63})
	v, err := r.ReadString()
	if err != nil || v != "abc" {
		t.Fatalf("got %q, %v", v, err)
	}

	//	truncated content
	r = NewReader([]byte{3, 0, 0, 0, 0x61, 0x62})
	if _, err := r.ReadString(); err != ErrShortRead {
		t.Fatalf("expected short read, got %v", err)
	}

	//	size prefix with no content at all
	r = NewReader([]byte{1, 0, 0, 0})
	if _, err := r.ReadString(); err != ErrShortRead {
		t.Fatalf("expected short read, got %v", err)
	}

	//	missing size prefix
	r = NewReader([]byte{1, 0})
	_, err = r.ReadString()
	if _, ok := err.(*SequenceSizeError); !ok {
		t.Fatalf("expected a sequence size error, got %v", err)
	}
}

func TestReadStringNotUTF8(t *testing.T) {
	r := NewReader([]byte{4, 0, 0, 0, 0, 159, 146, 150})
	v, err := r.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal([]byte(v), []byte{0, 159, 146, 150}) {
		t.Fatalf("got %v", []byte(v))
	}
}

func TestReadRaw(t *testing.T) {
	r := NewReader([]byte{1, 0, 0, 0, 100, 1, 0, 0, 0, 1, 0, 0, 0, 0})
	if v, err := r.ReadRaw(); err != nil || !bytes.Equal(v, []byte{100}) {
		t.Fatalf("got %v, %v", v, err)
	}
	if v, err := r.ReadRaw(); err != nil || !bytes.Equal(v, []byte{1}) {
		t.Fatalf("got %v, %v", v, err)
	}
	if v, err := r.ReadRaw(); err != nil || len(v) != 0 {
		t.Fatalf("got %v, %v", v, err)
	}
	_, err := r.ReadRaw()
	if _, ok := err.(*SequenceSizeError); !ok {
		t.Fatalf("expected a sequence size error, got %v", err)
	}
}

func TestReadSize(t *testing.T) {
	r := NewReader([]byte{0x01, 0x00, 0x00, 0x00, 1, 2})
	if v, err := r.ReadSize(); err != nil || v != 1 {
		t.Fatalf("got %d, %v", v, err)
	}
	if _, err := r.ReadSize(); err != ErrShortRead {
		t.Fatalf("expected short read, got %v", err)
	}
}
