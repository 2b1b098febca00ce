/*
*	Sessions add authentication on top of a messaging endpoint. A
*	client session authenticates to the remote right after the
*	transport is up; a server session keeps the user handler locked
*	away until the remote authenticates.
 */
package session

import (
	"context"
	"io"
	"sync"

	"github.com/op/go-logging"
	"github.com/satori/go.uuid"

	"qi.dev/qi/capability"
	"qi.dev/qi/channel"
	"qi.dev/qi/message"
)

type Session struct {
	uid      uuid.UUID
	endpoint *channel.Endpoint
	control  *control
	log      *logging.Logger

	runOnce sync.Once
	runDone chan struct{}
	runErr  error
}

// Connect runs the outbound authentication handshake over an open
// duplex stream and returns the authenticated session. The handler
// serves calls the remote makes back on this connection.
func Connect(stream io.ReadWriter, credentials capability.Map, authenticator Authenticator,
	handler channel.Handler, timeouts Timeouts, log *logging.Logger) (s *Session, err error) {
	if authenticator == nil {
		authenticator = PermissiveAuthenticator{}
	}
	//	the remote is the server; it does not authenticate to us
	ctl := newControl(authenticator, handler, true, log)
	s = newSession(stream, ctl, log)

	defer func() {
		if err != nil {
			s.Close()
			s = nil
		}
	}()

	request := capability.Local()
	for _, kv := range credentials {
		request.Set(kv.Key, kv.Value)
	}
	payload, err := request.Encode()
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Authenticate.Fail)
	defer cancel()
	replyPayload, err := s.endpoint.Call(ctx, ControlAddress, payload)
	if err != nil {
		return
	}
	reply, err := capability.Decode(replyPayload)
	if err != nil {
		return
	}
	if state, present := stateOf(reply); present && state != StateDone {
		err = &AuthenticationFailureError{Reason: "server did not report authentication done"}
		return
	}
	if err = capability.CheckRequired(reply); err != nil {
		return
	}
	ctl.setCapabilities(capability.Intersect(capability.Local(), reply), true)
	log.Debug("authenticated to remote, session", s.uid, "up")
	return
}

// Serve answers the inbound authentication handshake over an open
// duplex stream. The user handler stays gated until the remote
// authenticates against the authenticator.
func Serve(stream io.ReadWriter, authenticator Authenticator, handler channel.Handler,
	log *logging.Logger) (s *Session) {
	if authenticator == nil {
		authenticator = PermissiveAuthenticator{}
	}
	ctl := newControl(authenticator, handler, false, log)
	return newSession(stream, ctl, log)
}

func newSession(stream io.ReadWriter, ctl *control, log *logging.Logger) *Session {
	s := &Session{
		uid:     uuid.NewV4(),
		control: ctl,
		log:     log,
		runDone: make(chan struct{}),
	}
	s.endpoint = channel.New(stream, ctl, log)
	go func() {
		err := s.endpoint.Run()
		s.runOnce.Do(func() {
			s.runErr = err
			close(s.runDone)
		})
	}()
	return s
}

func (s *Session) Uid() uuid.UUID {
	return s.uid
}

// Capabilities returns a snapshot of the negotiated capability map,
// nil before authentication completed.
func (s *Session) Capabilities() capability.Map {
	return s.control.capabilities()
}

func (s *Session) Authorized() bool {
	return s.control.isAuthorized()
}

// Call invokes a remote action and waits for its reply.
func (s *Session) Call(ctx context.Context, address message.Address, payload []byte) ([]byte, error) {
	return s.endpoint.Call(ctx, address, payload)
}

// CallID invokes a remote action, exposing the request id so the call
// can be canceled remotely with Cancel.
func (s *Session) CallID(ctx context.Context, address message.Address, payload []byte) (uint32, func() ([]byte, error), error) {
	return s.endpoint.CallID(ctx, address, payload)
}

func (s *Session) Post(address message.Address, payload []byte) error {
	return s.endpoint.Post(address, payload)
}

func (s *Session) Event(address message.Address, payload []byte) error {
	return s.endpoint.Event(address, payload)
}

func (s *Session) Cancel(address message.Address, callID uint32) error {
	return s.endpoint.Cancel(address, callID)
}

// AdvertiseCapabilities sends a one-way capability advertisement on
// the control address.
func (s *Session) AdvertiseCapabilities(m capability.Map) (err error) {
	payload, err := m.Encode()
	if err != nil {
		return
	}
	return s.endpoint.Capabilities(ControlAddress, payload)
}

// Wait blocks until the underlying endpoint terminates.
func (s *Session) Wait() error {
	<-s.runDone
	return s.runErr
}

func (s *Session) Close() {
	s.endpoint.Terminate()
}
