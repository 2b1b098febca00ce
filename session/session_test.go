package session

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/op/go-logging"

	"qi.dev/qi/capability"
	"qi.dev/qi/channel"
	"qi.dev/qi/format"
	"qi.dev/qi/message"
	"qi.dev/qi/value"
)

var testLog = logging.MustGetLogger("session_test")

var userAddress = message.Address{Service: 1, Object: 1, Action: 100}

// echoHandler replies with the request payload.
type echoHandler struct{}

func (echoHandler) Call(ctx context.Context, address message.Address, payload []byte) ([]byte, error) {
	return payload, nil
}

func (echoHandler) FireAndForget(address message.Address, notification channel.Notification) {}

type nopHandler struct{}

func (nopHandler) Call(ctx context.Context, address message.Address, payload []byte) ([]byte, error) {
	return nil, &NoMessageHandlerError{Address: address}
}

func (nopHandler) FireAndForget(address message.Address, notification channel.Notification) {}

func connectedPair(t *testing.T, authenticator Authenticator, credentials capability.Map) (*Session, *Session) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	server := Serve(serverConn, authenticator, echoHandler{}, testLog)
	client, err := Connect(clientConn, credentials, nil, nopHandler{}, DefaultTimeouts(), testLog)
	if err != nil {
		server.Close()
		t.Fatal(err)
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

func TestAuthenticationHandshake(t *testing.T) {
	client, server := connectedPair(t, PermissiveAuthenticator{}, nil)

	if !client.Authorized() || !server.Authorized() {
		t.Fatal("both sides must be authorized after the handshake")
	}
	capabilities := client.Capabilities()
	if err := capability.CheckRequired(capabilities); err != nil {
		t.Fatal(err)
	}
	if server.Capabilities() == nil {
		t.Fatal("server must have stored the shared capabilities")
	}
}

func TestCallAfterAuthentication(t *testing.T) {
	client, _ := connectedPair(t, PermissiveAuthenticator{}, nil)

	payload, err := format.ToBytes(value.Int32(42))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := client.Call(ctx, userAddress, payload)
	if err != nil {
		t.Fatal(err)
	}
	v, err := format.FromBytes(reply, value.Int32(0).Type())
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Int32(42)) {
		t.Fatal("echo reply decoded to", v)
	}
}

// Any call to a non-control address before authentication succeeds
// must fail with no message handler.
func TestUnauthenticatedGate(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	server := Serve(serverConn, TokenAuthenticator{Token: "secret"}, echoHandler{}, testLog)
	defer server.Close()

	//	a bare endpoint that never authenticates
	ep := channel.New(clientConn, nopHandler{}, testLog)
	go ep.Run()
	defer ep.Terminate()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ep.Call(ctx, userAddress, nil)
	remoteErr, ok := err.(*channel.RemoteError)
	if !ok {
		t.Fatalf("expected a remote error, got %v", err)
	}
	if !strings.Contains(remoteErr.Description, "no message handler") {
		t.Fatal("description is", remoteErr.Description)
	}
	if server.Authorized() {
		t.Fatal("server must not be authorized")
	}
}

func TestTokenAuthenticator(t *testing.T) {
	client, server := connectedPair(t, TokenAuthenticator{Token: "secret"}, Credentials("tester", "secret"))
	if !client.Authorized() || !server.Authorized() {
		t.Fatal("the correct token must authenticate")
	}
}

func TestTokenAuthenticatorRejects(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	server := Serve(serverConn, TokenAuthenticator{Token: "secret"}, echoHandler{}, testLog)
	defer server.Close()

	_, err := Connect(clientConn, Credentials("tester", "wrong"), nil, nopHandler{}, DefaultTimeouts(), testLog)
	if err == nil {
		t.Fatal("a bad token must not authenticate")
	}
	remoteErr, ok := err.(*channel.RemoteError)
	if !ok {
		t.Fatalf("expected a remote error, got %v", err)
	}
	if !strings.Contains(remoteErr.Description, "authentication failure") {
		t.Fatal("description is", remoteErr.Description)
	}
	if server.Authorized() {
		t.Fatal("server must not be authorized after a rejected handshake")
	}
}

func TestAuthenticationReplyCarriesStateDone(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	server := Serve(serverConn, PermissiveAuthenticator{}, echoHandler{}, testLog)
	defer server.Close()

	ep := channel.New(clientConn, nopHandler{}, testLog)
	go ep.Run()
	defer ep.Terminate()

	request, err := capability.Local().Encode()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	replyPayload, err := ep.Call(ctx, ControlAddress, request)
	if err != nil {
		t.Fatal(err)
	}
	reply, err := capability.Decode(replyPayload)
	if err != nil {
		t.Fatal(err)
	}
	state, present := stateOf(reply)
	if !present || state != StateDone {
		t.Fatalf("state is %d (present %v)", state, present)
	}
}

func TestFireAndForgetDroppedUntilAuthorized(t *testing.T) {
	received := make(chan channel.Notification, 1)
	recorder := recordingHandler{notifications: received}

	clientConn, serverConn := net.Pipe()
	server := Serve(serverConn, TokenAuthenticator{Token: "secret"}, recorder, testLog)
	defer server.Close()

	ep := channel.New(clientConn, nopHandler{}, testLog)
	go ep.Run()
	defer ep.Terminate()

	if err := ep.Post(userAddress, []byte{1}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-received:
		t.Fatal("a post from an unauthorized remote must be dropped")
	case <-time.After(100 * time.Millisecond):
	}
}

type recordingHandler struct {
	notifications chan channel.Notification
}

func (recordingHandler) Call(ctx context.Context, address message.Address, payload []byte) ([]byte, error) {
	return nil, &NoMessageHandlerError{Address: address}
}

func (h recordingHandler) FireAndForget(address message.Address, notification channel.Notification) {
	h.notifications <- notification
}
