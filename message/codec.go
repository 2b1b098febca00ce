package message

import (
	"encoding/binary"
	"io"
)

// Decoder reads frames off a byte stream. A header validation failure
// is terminal: the stream cannot be resynchronized and every later
// Decode returns the same error. Bytes past a complete frame are left
// in the stream for the next call.
type Decoder struct {
	r   io.Reader
	err error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

func (d *Decoder) Decode() (msg Message, err error) {
	if d.err != nil {
		err = d.err
		return
	}
	msg, err = d.decode()
	if err != nil && err != io.EOF {
		d.err = err
	}
	return
}

func (d *Decoder) decode() (msg Message, err error) {
	var header [HeaderSize]byte
	_, err = io.ReadFull(d.r, header[:])
	if err != nil {
		return
	}
	cookie := binary.BigEndian.Uint32(header[0:4])
	if cookie != MagicCookie {
		err = &InvalidMagicCookieError{Actual: cookie}
		return
	}
	msg.ID = binary.LittleEndian.Uint32(header[4:8])
	bodySize := binary.LittleEndian.Uint32(header[8:12])
	version := binary.LittleEndian.Uint16(header[12:14])
	if version != Version {
		err = &UnsupportedVersionError{Version: version}
		return
	}
	kind := header[14]
	if kind < uint8(KindCall) || kind > uint8(KindCanceled) {
		err = &InvalidTypeValueError{Value: kind}
		return
	}
	msg.Kind = Kind(kind)
	flags := header[15]
	if flags&^uint8(FlagDynamicPayload|FlagReturnType) != 0 {
		err = &InvalidFlagsValueError{Value: flags}
		return
	}
	msg.Flags = Flags(flags)
	msg.Address.Service = binary.LittleEndian.Uint32(header[16:20])
	msg.Address.Object = binary.LittleEndian.Uint32(header[20:24])
	msg.Address.Action = binary.LittleEndian.Uint32(header[24:28])
	if bodySize > MaxBodySize {
		err = &BodySizeTooLargeError{Size: bodySize}
		return
	}
	if bodySize > 0 {
		msg.Body = make([]byte, bodySize)
		_, err = io.ReadFull(d.r, msg.Body)
		if err != nil {
			return
		}
	}
	return
}

// Encoder writes frames onto a byte stream.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Encode(msg Message) (err error) {
	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], MagicCookie)
	binary.LittleEndian.PutUint32(header[4:8], msg.ID)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(msg.Body)))
	binary.LittleEndian.PutUint16(header[12:14], Version)
	header[14] = uint8(msg.Kind)
	header[15] = uint8(msg.Flags)
	binary.LittleEndian.PutUint32(header[16:20], msg.Address.Service)
	binary.LittleEndian.PutUint32(header[20:24], msg.Address.Object)
	binary.LittleEndian.PutUint32(header[24:28], msg.Address.Action)
	if len(msg.Body) > MaxBodySize {
		return &BodySizeTooLargeError{Size: uint32(len(msg.Body))}
	}
	_, err = e.w.Write(header[:])
	if err != nil {
		return
	}
	if len(msg.Body) > 0 {
		_, err = e.w.Write(msg.Body)
	}
	return
}
