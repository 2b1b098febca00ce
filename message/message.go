/*
*	The qi wire frame: a fixed 28-byte header followed by an opaque
*	body. The header starts with the magic cookie 0x42DEAD42, stored
*	big-endian; every other field is little-endian.
 */
package message

import (
	"fmt"
)

const MagicCookie uint32 = 0x42dead42

// Only protocol version 0 exists.
const Version uint16 = 0

const HeaderSize = 28

// Frames above this body size are rejected rather than buffered.
const MaxBodySize = 1 << 28

type Kind uint8

const (
	KindCall         Kind = 1
	KindReply        Kind = 2
	KindError        Kind = 3
	KindPost         Kind = 4
	KindEvent        Kind = 5
	KindCapabilities Kind = 6
	KindCancel       Kind = 7
	KindCanceled     Kind = 8
)

func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindReply:
		return "reply"
	case KindError:
		return "error"
	case KindPost:
		return "post"
	case KindEvent:
		return "event"
	case KindCapabilities:
		return "capabilities"
	case KindCancel:
		return "cancel"
	case KindCanceled:
		return "canceled"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

type Flags uint8

const (
	FlagDynamicPayload Flags = 1 << 0
	FlagReturnType     Flags = 1 << 1
)

func (f Flags) HasDynamicPayload() bool { return f&FlagDynamicPayload != 0 }
func (f Flags) HasReturnType() bool     { return f&FlagReturnType != 0 }

// Address identifies a callable endpoint: an action of an object of a
// service.
type Address struct {
	Service uint32
	Object  uint32
	Action  uint32
}

func (a Address) String() string {
	return fmt.Sprintf("(%d,%d,%d)", a.Service, a.Object, a.Action)
}

type Message struct {
	ID      uint32
	Kind    Kind
	Flags   Flags
	Address Address
	Body    []byte
}

func (m Message) String() string {
	return fmt.Sprintf("message(id=%d, kind=%s, flags=%#x, address=%s, body=%d bytes)",
		m.ID, m.Kind, uint8(m.Flags), m.Address, len(m.Body))
}

type InvalidMagicCookieError struct {
	Actual uint32
}

func (e *InvalidMagicCookieError) Error() string {
	return fmt.Sprintf("invalid magic cookie %#08x", e.Actual)
}

type UnsupportedVersionError struct {
	Version uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported protocol version %d", e.Version)
}

type InvalidTypeValueError struct {
	Value uint8
}

func (e *InvalidTypeValueError) Error() string {
	return fmt.Sprintf("invalid message type value %d", e.Value)
}

type InvalidFlagsValueError struct {
	Value uint8
}

func (e *InvalidFlagsValueError) Error() string {
	return fmt.Sprintf("invalid message flags value %#x", e.Value)
}

type BodySizeTooLargeError struct {
	Size uint32
}

func (e *BodySizeTooLargeError) Error() string {
	return fmt.Sprintf("message body size %d exceeds the maximum of %d", e.Size, MaxBodySize)
}
