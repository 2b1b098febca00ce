package object

import (
	"context"
	"fmt"
	"sync"

	"qi.dev/qi/format"
	"qi.dev/qi/types"
	"qi.dev/qi/value"
)

// Method is the implementation of one user action: it receives the
// encoded argument tuple and returns the encoded result.
type Method func(ctx context.Context, payload []byte) ([]byte, error)

// Host serves one object: it dispatches actions against the
// metaobject, answering the reserved introspection, property and
// event actions itself and routing user actions to their methods.
type Host struct {
	meta    MetaObject
	methods map[ActionID]Method

	mu         sync.Mutex
	properties map[ActionID]value.Value
	links      map[uint64]ActionID
}

func NewHost(meta MetaObject) *Host {
	return &Host{
		meta:       meta,
		methods:    map[ActionID]Method{},
		properties: map[ActionID]value.Value{},
		links:      map[uint64]ActionID{},
	}
}

func (h *Host) MetaObject() MetaObject {
	return h.meta
}

// On binds the implementation of a user action.
func (h *Host) On(uid ActionID, method Method) *Host {
	h.methods[uid] = method
	return h
}

func (h *Host) SetProperty(uid ActionID, v value.Value) {
	h.mu.Lock()
	h.properties[uid] = v
	h.mu.Unlock()
}

type NoSuchActionError struct {
	Action ActionID
}

func (e *NoSuchActionError) Error() string {
	return fmt.Sprintf("object has no action %d", e.Action)
}

func (h *Host) Dispatch(ctx context.Context, action ActionID, payload []byte) (result []byte, err error) {
	switch action {
	case ActionMetaObject:
		return h.encodedMetaObject()
	case ActionProperty:
		return h.property(payload)
	case ActionSetProperty:
		return h.setProperty(payload)
	case ActionProperties:
		return h.allProperties()
	case ActionRegisterEvent, ActionRegisterEventWithSignature:
		return h.registerEvent(payload)
	case ActionUnregisterEvent:
		return h.unregisterEvent(payload)
	}
	method, ok := h.methods[action]
	if !ok {
		err = &NoSuchActionError{Action: action}
		return
	}
	return method(ctx, payload)
}

func (h *Host) encodedMetaObject() (result []byte, err error) {
	v, err := h.meta.ToValue()
	if err != nil {
		return
	}
	return format.ToBytes(v)
}

func (h *Host) resolveMember(member value.Value) (uid ActionID, err error) {
	if d, ok := member.(value.Dynamic); ok {
		member = d.Value
	}
	switch m := member.(type) {
	case value.String:
		id, ok := h.meta.PropertyID(string(m))
		if !ok {
			err = fmt.Errorf("object has no property %q", string(m))
			return
		}
		uid = id
	case value.UInt32:
		uid = ActionID(m)
	default:
		err = fmt.Errorf("member address has type %s, expected a name or an id", member.Type().Signature())
	}
	return
}

func (h *Host) property(payload []byte) (result []byte, err error) {
	member, err := format.FromBytes(payload, nil)
	if err != nil {
		return
	}
	uid, err := h.resolveMember(member)
	if err != nil {
		return
	}
	h.mu.Lock()
	v, ok := h.properties[uid]
	h.mu.Unlock()
	if !ok {
		err = fmt.Errorf("property %d has no value", uid)
		return
	}
	return format.ToBytes(value.Dynamic{Value: v})
}

func (h *Host) setProperty(payload []byte) (result []byte, err error) {
	args, err := format.FromBytes(payload, types.Tuple(nil, nil))
	if err != nil {
		return
	}
	tuple := args.(value.Tuple)
	uid, err := h.resolveMember(tuple.Elements[0])
	if err != nil {
		return
	}
	v := tuple.Elements[1]
	if d, ok := v.(value.Dynamic); ok {
		v = d.Value
	}
	h.SetProperty(uid, v)
	return format.ToBytes(value.Unit{})
}

func (h *Host) allProperties() (result []byte, err error) {
	h.mu.Lock()
	var entries value.Map
	for uid, v := range h.properties {
		if property, ok := h.meta.Properties[uid]; ok {
			entries.Set(value.String(property.Name), value.Dynamic{Value: v})
		}
	}
	h.mu.Unlock()
	return format.ToBytes(entries)
}

func (h *Host) registerEvent(payload []byte) (result []byte, err error) {
	args, err := format.FromBytes(payload, types.Tuple(types.UInt32(), types.UInt32(), types.UInt64()))
	if err != nil {
		return
	}
	tuple := args.(value.Tuple)
	signal := ActionID(tuple.Elements[1].(value.UInt32))
	link := uint64(tuple.Elements[2].(value.UInt64))
	if _, ok := h.meta.Signals[signal]; !ok {
		err = fmt.Errorf("object has no signal %d", signal)
		return
	}
	h.mu.Lock()
	h.links[link] = signal
	h.mu.Unlock()
	return format.ToBytes(value.UInt64(link))
}

func (h *Host) unregisterEvent(payload []byte) (result []byte, err error) {
	args, err := format.FromBytes(payload, types.Tuple(types.UInt32(), types.UInt32(), types.UInt64()))
	if err != nil {
		return
	}
	tuple := args.(value.Tuple)
	link := uint64(tuple.Elements[2].(value.UInt64))
	h.mu.Lock()
	delete(h.links, link)
	h.mu.Unlock()
	return format.ToBytes(value.Unit{})
}

// Subscribers returns the signals with at least one registered link.
func (h *Host) Subscribers() map[ActionID]int {
	counts := map[ActionID]int{}
	h.mu.Lock()
	for _, signal := range h.links {
		counts[signal]++
	}
	h.mu.Unlock()
	return counts
}
