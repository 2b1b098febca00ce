package session

import (
	"fmt"

	"qi.dev/qi/capability"
	"qi.dev/qi/value"
)

// Authentication parameter and state keys exchanged inside capability
// maps on the control address.
const (
	AuthUserKey  = "auth_user"
	AuthTokenKey = "auth_token"
	StateKey     = "__qi_auth_state"
)

const (
	StateError    uint32 = 1
	StateContinue uint32 = 2
	StateDone     uint32 = 3
)

type AuthenticationFailureError struct {
	Reason string
}

func (e *AuthenticationFailureError) Error() string {
	return fmt.Sprintf("authentication failure: %s", e.Reason)
}

// Authenticator verifies the parameters a remote presented on the
// control address. Implementations must be safe for concurrent use.
type Authenticator interface {
	Verify(parameters capability.Map) error
}

// PermissiveAuthenticator accepts any parameters. It is the default.
type PermissiveAuthenticator struct{}

func (PermissiveAuthenticator) Verify(parameters capability.Map) error {
	return nil
}

// TokenAuthenticator requires the auth_token parameter to match a
// fixed secret.
type TokenAuthenticator struct {
	Token string
}

func (a TokenAuthenticator) Verify(parameters capability.Map) error {
	presented, ok := parameters.Get(AuthTokenKey)
	if !ok {
		return &AuthenticationFailureError{Reason: "no token presented"}
	}
	if !value.Equal(presented, value.String(a.Token)) {
		return &AuthenticationFailureError{Reason: "bad token"}
	}
	return nil
}

// Credentials builds the parameter map a client presents.
func Credentials(user, token string) (m capability.Map) {
	if user != "" {
		m.Set(AuthUserKey, value.String(user))
	}
	if token != "" {
		m.Set(AuthTokenKey, value.String(token))
	}
	return
}

func stateDone(m capability.Map) capability.Map {
	reply := m.Clone()
	reply.Set(StateKey, value.UInt32(StateDone))
	return reply
}

func stateOf(m capability.Map) (state uint32, present bool) {
	v, ok := m.Get(StateKey)
	if !ok {
		return 0, false
	}
	if d, isDynamic := v.(value.Dynamic); isDynamic {
		v = d.Value
	}
	if n, isUInt := v.(value.UInt32); isUInt {
		return uint32(n), true
	}
	return 0, false
}
