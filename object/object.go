/*
*	The qi object model: metaobjects describing methods, signals and
*	properties, addressed by numeric action ids.
 */
package object

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/satori/go.uuid"

	"qi.dev/qi/value"
)

type ActionID uint32

// Reserved action ids, identical on every object. User-defined
// actions start at ActionUserStart. Id 4 is reserved and unused.
const (
	ActionRegisterEvent              ActionID = 0
	ActionUnregisterEvent            ActionID = 1
	ActionMetaObject                 ActionID = 2
	ActionTerminate                  ActionID = 3
	ActionProperty                   ActionID = 5
	ActionSetProperty                ActionID = 6
	ActionProperties                 ActionID = 7
	ActionRegisterEventWithSignature ActionID = 8

	ActionUserStart ActionID = 100
)

// ObjectUid is the 20-byte SHA-1-shaped identifier of an object.
type ObjectUid [20]byte

// NewObjectUid derives a fresh object uid from random material.
func NewObjectUid() (uid ObjectUid) {
	return ObjectUid(sha1.Sum(uuid.NewV4().Bytes()))
}

// String prints the uid as five hyphen-separated little-endian hex
// dwords.
func (u ObjectUid) String() string {
	parts := make([]string, 5)
	for i := 0; i < 5; i++ {
		dword := binary.LittleEndian.Uint32(u[i*4 : i*4+4])
		parts[i] = fmt.Sprintf("%x", dword)
	}
	return strings.Join(parts, "-")
}

type MetaMethodParameter struct {
	Name        string
	Description string
}

type MetaMethod struct {
	Uid                 ActionID
	ReturnSignature     string
	Name                string
	ParametersSignature string
	Description         string
	Parameters          []MetaMethodParameter
	ReturnDescription   string
}

type MetaSignal struct {
	Uid       ActionID
	Name      string
	Signature string
}

type MetaProperty struct {
	Uid       ActionID
	Name      string
	Signature string
}

// MetaObject is the runtime description of an object.
type MetaObject struct {
	Methods     map[ActionID]MetaMethod
	Signals     map[ActionID]MetaSignal
	Properties  map[ActionID]MetaProperty
	Description string
}

// MethodID resolves a method name to its action id.
func (m MetaObject) MethodID(name string) (id ActionID, ok bool) {
	for uid, method := range m.Methods {
		if method.Name == name {
			return uid, true
		}
	}
	return 0, false
}

func (m MetaObject) SignalID(name string) (id ActionID, ok bool) {
	for uid, signal := range m.Signals {
		if signal.Name == name {
			return uid, true
		}
	}
	return 0, false
}

func (m MetaObject) PropertyID(name string) (id ActionID, ok bool) {
	for uid, property := range m.Properties {
		if property.Name == name {
			return uid, true
		}
	}
	return 0, false
}

// ToValue converts the metaobject into its wire value form.
func (m MetaObject) ToValue() (value.Value, error) {
	return value.ToValue(m)
}

func MetaObjectFromValue(v value.Value) (m MetaObject, err error) {
	err = value.FromValue(v, &m)
	return
}

type MetaObjectBuilder struct {
	meta MetaObject
}

func NewMetaObjectBuilder() *MetaObjectBuilder {
	return &MetaObjectBuilder{
		meta: MetaObject{
			Methods:    map[ActionID]MetaMethod{},
			Signals:    map[ActionID]MetaSignal{},
			Properties: map[ActionID]MetaProperty{},
		},
	}
}

func (b *MetaObjectBuilder) SetDescription(description string) *MetaObjectBuilder {
	b.meta.Description = description
	return b
}

func (b *MetaObjectBuilder) AddMethod(uid ActionID, name, parametersSignature, returnSignature string) *MetaObjectBuilder {
	b.meta.Methods[uid] = MetaMethod{
		Uid:                 uid,
		ReturnSignature:     returnSignature,
		Name:                name,
		ParametersSignature: parametersSignature,
	}
	return b
}

func (b *MetaObjectBuilder) AddSignal(uid ActionID, name, signature string) *MetaObjectBuilder {
	b.meta.Signals[uid] = MetaSignal{Uid: uid, Name: name, Signature: signature}
	return b
}

// AddProperty registers a property; properties are also signals.
func (b *MetaObjectBuilder) AddProperty(uid ActionID, name, signature string) *MetaObjectBuilder {
	b.meta.Properties[uid] = MetaProperty{Uid: uid, Name: name, Signature: signature}
	b.meta.Signals[uid] = MetaSignal{Uid: uid, Name: name, Signature: signature}
	return b
}

func (b *MetaObjectBuilder) Build() MetaObject {
	return b.meta
}

// MemberByName addresses a method, signal or property by name inside
// property and event actions.
func MemberByName(name string) value.Value {
	return value.Dynamic{Value: value.String(name)}
}

// MemberByID addresses a member by action id.
func MemberByID(id ActionID) value.Value {
	return value.Dynamic{Value: value.UInt32(id)}
}
