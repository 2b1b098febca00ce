package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/op/go-logging"

	"qi.dev/qi/capability"
	"qi.dev/qi/channel"
	"qi.dev/qi/message"
)

// ControlAddress is the reserved address authentication exchanges use.
// It is never user-addressable.
var ControlAddress = message.Address{Service: 0, Object: 0, Action: 8}

type NoMessageHandlerError struct {
	Address message.Address
}

func (e *NoMessageHandlerError) Error() string {
	return fmt.Sprintf("no message handler for address %s", e.Address)
}

// control wraps the user handler with the authentication gate: before
// a remote authenticates on the control address, only control traffic
// is served. Capability advertisements are always processed.
type control struct {
	authenticator Authenticator
	handler       channel.Handler
	log           *logging.Logger

	mu         sync.RWMutex
	authorized bool
	shared     capability.Map //	nil before authentication
}

func newControl(authenticator Authenticator, handler channel.Handler, authorized bool, log *logging.Logger) *control {
	return &control{
		authenticator: authenticator,
		handler:       handler,
		authorized:    authorized,
		log:           log,
	}
}

func (c *control) isAuthorized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authorized
}

func (c *control) capabilities() capability.Map {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shared.Clone()
}

func (c *control) setCapabilities(shared capability.Map, authorized bool) {
	c.mu.Lock()
	c.shared = shared
	if authorized {
		c.authorized = true
	}
	c.mu.Unlock()
}

func (c *control) Call(ctx context.Context, address message.Address, payload []byte) (result []byte, err error) {
	if address == ControlAddress {
		return c.authenticate(payload)
	}
	if !c.isAuthorized() {
		err = &NoMessageHandlerError{Address: address}
		return
	}
	return c.handler.Call(ctx, address, payload)
}

func (c *control) authenticate(payload []byte) (result []byte, err error) {
	request, err := capability.Decode(payload)
	if err != nil {
		return
	}
	shared := capability.Intersect(capability.Local(), request)
	if err = capability.CheckRequired(shared); err != nil {
		return
	}
	if err = c.authenticator.Verify(request); err != nil {
		c.log.Notice("rejecting remote authentication:", err)
		return
	}
	c.setCapabilities(shared, true)
	c.log.Debug("remote authenticated, capabilities negotiated")
	return stateDone(shared).Encode()
}

func (c *control) FireAndForget(address message.Address, notification channel.Notification) {
	if notification.Kind == message.KindCapabilities {
		c.updateCapabilities(notification.Payload)
		return
	}
	if !c.isAuthorized() {
		c.log.Debug("dropping", notification.Kind, "notification for", address, "from unauthorized remote")
		return
	}
	c.handler.FireAndForget(address, notification)
}

// updateCapabilities re-intersects the negotiated map with a fresh
// remote advertisement. Before a map has been negotiated there is
// nothing to re-intersect and the advertisement has no effect.
func (c *control) updateCapabilities(payload []byte) {
	remote, err := capability.Decode(payload)
	if err != nil {
		c.log.Error("dropping undecodable capabilities advertisement:", err)
		return
	}
	c.mu.Lock()
	if c.shared != nil {
		c.shared = capability.Intersect(c.shared, remote)
	}
	c.mu.Unlock()
}
