package object

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"qi.dev/qi/format"
	"qi.dev/qi/message"
	"qi.dev/qi/types"
	"qi.dev/qi/value"
)

func TestObjectUidString(t *testing.T) {
	var uid ObjectUid
	for i := range uid {
		uid[i] = byte(i)
	}
	//	five little-endian dwords, hyphen separated
	if got := uid.String(); got != "3020100-7060504-b0a0908-f0e0d0c-13121110" {
		t.Fatalf("uid prints as %q", got)
	}
}

func TestNewObjectUidIsUnique(t *testing.T) {
	if NewObjectUid() == NewObjectUid() {
		t.Fatal("two fresh uids collided")
	}
}

func testMetaObject() MetaObject {
	return NewMetaObjectBuilder().
		SetDescription("a test object").
		AddMethod(ActionUserStart, "add", "(ii)", "i").
		AddMethod(ActionUserStart+1, "name", "()", "s").
		AddSignal(ActionUserStart+2, "changed", "(i)").
		AddProperty(ActionUserStart+3, "threshold", "i").
		Build()
}

func TestMetaObjectBuilder(t *testing.T) {
	meta := testMetaObject()
	if id, ok := meta.MethodID("add"); !ok || id != ActionUserStart {
		t.Fatalf("add resolves to %d (%v)", id, ok)
	}
	if _, ok := meta.MethodID("missing"); ok {
		t.Fatal("unknown method must not resolve")
	}
	//	properties register their signal too
	if _, ok := meta.Signals[ActionUserStart+3]; !ok {
		t.Fatal("the property signal is missing")
	}
	if id, ok := meta.PropertyID("threshold"); !ok || id != ActionUserStart+3 {
		t.Fatalf("threshold resolves to %d (%v)", id, ok)
	}
}

func TestMetaObjectWireRoundTrip(t *testing.T) {
	meta := testMetaObject()
	v, err := meta.ToValue()
	if err != nil {
		t.Fatal(err)
	}
	buf, err := format.ToBytes(v)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := format.FromBytes(buf, metaObjectType)
	if err != nil {
		t.Fatal(err)
	}
	back, err := MetaObjectFromValue(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(meta, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatal(diff)
	}
}

// hostCaller short-circuits a proxy onto a host, bypassing transport.
type hostCaller struct {
	host *Host
}

func (c hostCaller) Call(ctx context.Context, address message.Address, payload []byte) ([]byte, error) {
	return c.host.Dispatch(ctx, ActionID(address.Action), payload)
}

func newTestProxy(t *testing.T, service uint32) (*Proxy, *Host) {
	t.Helper()
	host := NewHost(testMetaObject())
	host.On(ActionUserStart, func(ctx context.Context, payload []byte) ([]byte, error) {
		args, err := format.FromBytes(payload, types.Tuple(types.Int32(), types.Int32()))
		if err != nil {
			return nil, err
		}
		tuple := args.(value.Tuple)
		sum := tuple.Elements[0].(value.Int32) + tuple.Elements[1].(value.Int32)
		return format.ToBytes(sum)
	})
	return NewProxy(hostCaller{host: host}, service, 1), host
}

func TestProxyCallMethod(t *testing.T) {
	proxy, _ := newTestProxy(t, 40)
	result, err := proxy.CallMethod(context.Background(), "add", value.Int32(2), value.Int32(3))
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(result, value.Int32(5)) {
		t.Fatal("add returned", result)
	}
}

func TestProxyCallUnknownMethod(t *testing.T) {
	proxy, _ := newTestProxy(t, 41)
	_, err := proxy.CallMethod(context.Background(), "missing")
	if _, ok := err.(*NoSuchMethodError); !ok {
		t.Fatalf("expected a no-such-method error, got %v", err)
	}
}

func TestProxyMetaObjectIsCached(t *testing.T) {
	proxy, host := newTestProxy(t, 42)
	first, err := proxy.MetaObject(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	//	mutate the host metaobject; the cached copy must keep serving
	host.meta.Description = "changed behind the cache"
	second, err := proxy.MetaObject(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Description != second.Description {
		t.Fatal("the metaobject was fetched twice")
	}
}

func TestProxyProperty(t *testing.T) {
	proxy, host := newTestProxy(t, 43)
	host.SetProperty(ActionUserStart+3, value.Int32(10))

	v, err := proxy.Property(context.Background(), "threshold")
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Int32(10)) {
		t.Fatal("threshold is", v)
	}

	if err := proxy.SetProperty(context.Background(), "threshold", value.Int32(20)); err != nil {
		t.Fatal(err)
	}
	v, err = proxy.Property(context.Background(), "threshold")
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Int32(20)) {
		t.Fatal("threshold is", v)
	}
}

func TestProxyRegisterEvent(t *testing.T) {
	proxy, host := newTestProxy(t, 44)
	link, err := proxy.RegisterEvent(context.Background(), "changed", 77)
	if err != nil {
		t.Fatal(err)
	}
	if link != 77 {
		t.Fatal("link id is", link)
	}
	if counts := host.Subscribers(); counts[ActionUserStart+2] != 1 {
		t.Fatal("subscription not recorded:", counts)
	}
	if err := proxy.UnregisterEvent(context.Background(), "changed", 77); err != nil {
		t.Fatal(err)
	}
	if counts := host.Subscribers(); len(counts) != 0 {
		t.Fatal("subscription not removed:", counts)
	}
}

func TestHostRejectsUnknownAction(t *testing.T) {
	host := NewHost(testMetaObject())
	_, err := host.Dispatch(context.Background(), ActionID(999), nil)
	if _, ok := err.(*NoSuchActionError); !ok {
		t.Fatalf("expected a no-such-action error, got %v", err)
	}
}
