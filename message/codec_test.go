package message

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// S1 from the protocol test vectors: a capabilities message.
var capabilitiesHeader = []byte{
	0x42, 0xDE, 0xAD, 0x42, //	magic cookie
	0x49, 0x01, 0x00, 0x00, //	id = 329
	0x2B, 0x00, 0x00, 0x00, //	body size = 43
	0x00, 0x00, //	version = 0
	0x06,                   //	kind = capabilities
	0x00,                   //	flags
	0x01, 0x00, 0x00, 0x00, //	service = 1
	0x01, 0x00, 0x00, 0x00, //	object = 1
	0x68, 0x00, 0x00, 0x00, //	action = 104
}

func capabilitiesFrame() []byte {
	body := make([]byte, 43)
	for i := range body {
		body[i] = byte(i + 1)
	}
	return append(append([]byte(nil), capabilitiesHeader...), body...)
}

func TestDecodeCapabilitiesMessage(t *testing.T) {
	decoder := NewDecoder(bytes.NewReader(capabilitiesFrame()))
	msg, err := decoder.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID != 329 {
		t.Fatalf("id is %d", msg.ID)
	}
	if msg.Kind != KindCapabilities {
		t.Fatalf("kind is %s", msg.Kind)
	}
	expected := Address{Service: 1, Object: 1, Action: 104}
	if msg.Address != expected {
		t.Fatalf("address is %s", msg.Address)
	}
	if len(msg.Body) != 43 {
		t.Fatalf("body has %d bytes", len(msg.Body))
	}
}

func TestDecodeBadCookie(t *testing.T) {
	frame := capabilitiesFrame()
	frame[1] = 0xDF
	decoder := NewDecoder(bytes.NewReader(frame))
	_, err := decoder.Decode()
	cookieErr, ok := err.(*InvalidMagicCookieError)
	if !ok {
		t.Fatalf("expected an invalid magic cookie error, got %v", err)
	}
	if cookieErr.Actual != 0x42DFAD42 {
		t.Fatalf("actual cookie is %#x", cookieErr.Actual)
	}
}

func TestDecodeErrorIsSticky(t *testing.T) {
	frame := capabilitiesFrame()
	frame[0] = 0x00
	//	a valid frame follows the bad one, it must not be decoded
	input := append(frame, capabilitiesFrame()...)
	decoder := NewDecoder(bytes.NewReader(input))
	_, err := decoder.Decode()
	if _, ok := err.(*InvalidMagicCookieError); !ok {
		t.Fatalf("expected an invalid magic cookie error, got %v", err)
	}
	_, err2 := decoder.Decode()
	if err2 != err {
		t.Fatalf("decoder must stay failed, got %v", err2)
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	frame := capabilitiesFrame()
	frame[12] = 0x01
	decoder := NewDecoder(bytes.NewReader(frame))
	_, err := decoder.Decode()
	versionErr, ok := err.(*UnsupportedVersionError)
	if !ok {
		t.Fatalf("expected an unsupported version error, got %v", err)
	}
	if versionErr.Version != 1 {
		t.Fatalf("version is %d", versionErr.Version)
	}
}

func TestDecodeInvalidKindAndFlags(t *testing.T) {
	frame := capabilitiesFrame()
	frame[14] = 0x09
	decoder := NewDecoder(bytes.NewReader(frame))
	if _, err := decoder.Decode(); err == nil {
		t.Fatal("kind 9 must be rejected")
	}

	frame = capabilitiesFrame()
	frame[15] = 0x04
	decoder = NewDecoder(bytes.NewReader(frame))
	if _, err := decoder.Decode(); err == nil {
		t.Fatal("reserved flag bits must be rejected")
	}
}

func TestDecodeTruncated(t *testing.T) {
	frame := capabilitiesFrame()
	decoder := NewDecoder(bytes.NewReader(frame[:20]))
	if _, err := decoder.Decode(); err != io.ErrUnexpectedEOF {
		t.Fatalf("truncated header gave %v", err)
	}
	decoder = NewDecoder(bytes.NewReader(frame[:40]))
	if _, err := decoder.Decode(); err != io.ErrUnexpectedEOF {
		t.Fatalf("truncated body gave %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := Message{
		ID:      7,
		Kind:    KindCall,
		Flags:   FlagDynamicPayload | FlagReturnType,
		Address: Address{Service: 1, Object: 2, Action: 100},
		Body:    []byte{1, 2, 3},
	}
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(msg); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != HeaderSize+3 {
		t.Fatalf("frame has %d bytes", buf.Len())
	}
	back, err := NewDecoder(&buf).Decode()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(msg, back); diff != "" {
		t.Fatal(diff)
	}
}

func TestDecodePreservesTrailingBytes(t *testing.T) {
	input := append(capabilitiesFrame(), capabilitiesFrame()...)
	decoder := NewDecoder(bytes.NewReader(input))
	for i := 0; i < 2; i++ {
		msg, err := decoder.Decode()
		if err != nil {
			t.Fatalf("frame %d: %s", i, err)
		}
		if msg.ID != 329 {
			t.Fatalf("frame %d has id %d", i, msg.ID)
		}
	}
	if _, err := decoder.Decode(); err != io.EOF {
		t.Fatal("expected end of stream")
	}
}
