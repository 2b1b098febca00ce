package object

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/groupcache/lru"

	"qi.dev/qi/format"
	"qi.dev/qi/message"
	"qi.dev/qi/types"
	"qi.dev/qi/value"
)

// Caller abstracts the session a proxy calls through.
type Caller interface {
	Call(ctx context.Context, address message.Address, payload []byte) ([]byte, error)
}

// metaobjects are immutable per (service, object); cache them across
// proxies
var metaCacheMu sync.Mutex
var metaCache = lru.New(128)

type metaCacheKey struct {
	service uint32
	object  uint32
}

type NoSuchMethodError struct {
	Name string
}

func (e *NoSuchMethodError) Error() string {
	return fmt.Sprintf("object has no method named %q", e.Name)
}

// Proxy is a client-side handle on a remote object. Method calls
// resolve names through the remote metaobject, fetched once and
// cached.
type Proxy struct {
	caller  Caller
	service uint32
	object  uint32
}

func NewProxy(caller Caller, service, object uint32) *Proxy {
	return &Proxy{caller: caller, service: service, object: object}
}

func (p *Proxy) address(action ActionID) message.Address {
	return message.Address{Service: p.service, Object: p.object, Action: uint32(action)}
}

// MetaObject fetches the remote metaobject through the reserved
// introspection action, consulting the cache first.
func (p *Proxy) MetaObject(ctx context.Context) (meta MetaObject, err error) {
	key := metaCacheKey{service: p.service, object: p.object}
	metaCacheMu.Lock()
	cached, ok := metaCache.Get(key)
	metaCacheMu.Unlock()
	if ok {
		meta = cached.(MetaObject)
		return
	}
	payload, err := format.ToBytes(value.Tuple{Elements: []value.Value{value.UInt32(p.object)}})
	if err != nil {
		return
	}
	reply, err := p.caller.Call(ctx, p.address(ActionMetaObject), payload)
	if err != nil {
		return
	}
	v, err := format.FromBytes(reply, metaObjectType)
	if err != nil {
		return
	}
	meta, err = MetaObjectFromValue(v)
	if err != nil {
		return
	}
	metaCacheMu.Lock()
	metaCache.Add(key, meta)
	metaCacheMu.Unlock()
	return
}

var metaObjectType = mustParseType(format.MetaObjectSignature)

func mustParseType(signature string) *types.Type {
	t, err := types.Parse(signature)
	if err != nil {
		panic(err)
	}
	return t
}

// CallMethod invokes a method by name with a tuple of arguments and
// decodes the result against the method's return signature.
func (p *Proxy) CallMethod(ctx context.Context, name string, args ...value.Value) (result value.Value, err error) {
	meta, err := p.MetaObject(ctx)
	if err != nil {
		return
	}
	uid, ok := meta.MethodID(name)
	if !ok {
		err = &NoSuchMethodError{Name: name}
		return
	}
	payload, err := format.ToBytes(value.Tuple{Elements: args})
	if err != nil {
		return
	}
	reply, err := p.caller.Call(ctx, p.address(uid), payload)
	if err != nil {
		return
	}
	returnType, err := types.Parse(meta.Methods[uid].ReturnSignature)
	if err != nil {
		err = fmt.Errorf("method %q has a bad return signature: %s", name, err.Error())
		return
	}
	return format.FromBytes(reply, returnType)
}

// Property reads a property by name through the reserved property
// action.
func (p *Proxy) Property(ctx context.Context, name string) (result value.Value, err error) {
	payload, err := format.ToBytes(MemberByName(name))
	if err != nil {
		return
	}
	reply, err := p.caller.Call(ctx, p.address(ActionProperty), payload)
	if err != nil {
		return
	}
	v, err := format.FromBytes(reply, nil)
	if err != nil {
		return
	}
	if d, ok := v.(value.Dynamic); ok {
		v = d.Value
	}
	result = v
	return
}

func (p *Proxy) SetProperty(ctx context.Context, name string, v value.Value) (err error) {
	payload, err := format.ToBytes(value.Tuple{Elements: []value.Value{
		MemberByName(name),
		value.Dynamic{Value: v},
	}})
	if err != nil {
		return
	}
	_, err = p.caller.Call(ctx, p.address(ActionSetProperty), payload)
	return
}

// RegisterEvent subscribes to a signal by name; the returned link id
// identifies the subscription for UnregisterEvent.
func (p *Proxy) RegisterEvent(ctx context.Context, name string, link uint64) (confirmed uint64, err error) {
	meta, err := p.MetaObject(ctx)
	if err != nil {
		return
	}
	uid, ok := meta.SignalID(name)
	if !ok {
		err = fmt.Errorf("object has no signal named %q", name)
		return
	}
	payload, err := format.ToBytes(value.Tuple{Elements: []value.Value{
		value.UInt32(p.object), value.UInt32(uid), value.UInt64(link),
	}})
	if err != nil {
		return
	}
	reply, err := p.caller.Call(ctx, p.address(ActionRegisterEvent), payload)
	if err != nil {
		return
	}
	v, err := format.FromBytes(reply, types.UInt64())
	if err != nil {
		return
	}
	confirmed = uint64(v.(value.UInt64))
	return
}

func (p *Proxy) UnregisterEvent(ctx context.Context, name string, link uint64) (err error) {
	meta, err := p.MetaObject(ctx)
	if err != nil {
		return
	}
	uid, ok := meta.SignalID(name)
	if !ok {
		return fmt.Errorf("object has no signal named %q", name)
	}
	payload, err := format.ToBytes(value.Tuple{Elements: []value.Value{
		value.UInt32(p.object), value.UInt32(uid), value.UInt64(link),
	}})
	if err != nil {
		return
	}
	_, err = p.caller.Call(ctx, p.address(ActionUnregisterEvent), payload)
	return
}
