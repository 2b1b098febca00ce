package directory

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"qi.dev/qi/object"
	"qi.dev/qi/value"
)

// Client is a typed handle on a remote service directory. Resolved
// services are cached; registration paths invalidate the cache.
type Client struct {
	proxy *object.Proxy
	cache *lru.Cache
}

func NewClient(caller object.Caller) (c *Client, err error) {
	cache, err := lru.New(256)
	if err != nil {
		return
	}
	c = &Client{
		proxy: object.NewProxy(caller, ServiceID, ObjectID),
		cache: cache,
	}
	return
}

func (c *Client) Service(ctx context.Context, name string) (info ServiceInfo, err error) {
	if cached, ok := c.cache.Get(name); ok {
		info = cached.(ServiceInfo)
		return
	}
	result, err := c.proxy.CallMethod(ctx, "service", value.String(name))
	if err != nil {
		return
	}
	err = value.FromValue(result, &info)
	if err != nil {
		return
	}
	c.cache.Add(name, info)
	return
}

func (c *Client) Services(ctx context.Context) (infos []ServiceInfo, err error) {
	result, err := c.proxy.CallMethod(ctx, "services")
	if err != nil {
		return
	}
	err = value.FromValue(result, &infos)
	return
}

func (c *Client) RegisterService(ctx context.Context, info ServiceInfo) (serviceId uint32, err error) {
	arg, err := value.ToValue(info)
	if err != nil {
		return
	}
	result, err := c.proxy.CallMethod(ctx, "registerService", arg)
	if err != nil {
		return
	}
	err = value.FromValue(result, &serviceId)
	if err != nil {
		return
	}
	c.cache.Remove(info.Name)
	return
}

func (c *Client) ServiceReady(ctx context.Context, serviceId uint32) (err error) {
	_, err = c.proxy.CallMethod(ctx, "serviceReady", value.UInt32(serviceId))
	return
}

func (c *Client) UnregisterService(ctx context.Context, serviceId uint32) (err error) {
	_, err = c.proxy.CallMethod(ctx, "unregisterService", value.UInt32(serviceId))
	if err != nil {
		return
	}
	c.cache.Purge()
	return
}

func (c *Client) UpdateServiceInfo(ctx context.Context, info ServiceInfo) (err error) {
	_, err = c.proxy.CallMethod(ctx, "updateServiceInfo", info2Value(info))
	if err != nil {
		return
	}
	c.cache.Remove(info.Name)
	return
}

func (c *Client) MachineId(ctx context.Context) (id string, err error) {
	result, err := c.proxy.CallMethod(ctx, "machineId")
	if err != nil {
		return
	}
	err = value.FromValue(result, &id)
	return
}

func info2Value(info ServiceInfo) value.Value {
	v, err := value.ToValue(info)
	if err != nil {
		//	ServiceInfo only holds strings and integers
		panic(fmt.Sprintf("service info conversion: %s", err))
	}
	return v
}
