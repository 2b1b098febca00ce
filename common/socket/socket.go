package socket

import (
	"crypto/tls"
	"fmt"
	"net"
	"strings"
)

// Transport address shapes understood by the session layer:
// tcp://host:port, tcps://host:port (TLS), unix:///path, and the
// relative form qi:<service-name>, which is resolved through a
// service directory rather than dialed here.
const (
	SCHEME_TCP  = "tcp"
	SCHEME_TCPS = "tcps"
	SCHEME_UNIX = "unix"
	SCHEME_QI   = "qi"
)

const DEFAULT_HOST = "localhost"
const DEFAULT_PORT = "9559"

type Address struct {
	Scheme string
	Host   string
	Port   string
	Path   string //	unix socket path
	Name   string //	relative qi:<service-name>
}

func (a Address) IsRelative() bool {
	return a.Scheme == SCHEME_QI
}

func (a Address) String() string {
	switch a.Scheme {
	case SCHEME_QI:
		return SCHEME_QI + ":" + a.Name
	case SCHEME_UNIX:
		return SCHEME_UNIX + "://" + a.Path
	default:
		return a.Scheme + "://" + a.Host + ":" + a.Port
	}
}

func ParseAddress(addr string) (parsed Address, err error) {
	if strings.HasPrefix(addr, SCHEME_QI+":") {
		parsed = Address{Scheme: SCHEME_QI, Name: strings.TrimPrefix(addr, SCHEME_QI+":")}
		if parsed.Name == "" {
			err = fmt.Errorf("empty service name in relative address %q", addr)
		}
		return
	}
	idx := strings.Index(addr, "://")
	if idx < 0 {
		err = fmt.Errorf("address %q has no scheme", addr)
		return
	}
	scheme, rest := addr[:idx], addr[idx+3:]
	switch scheme {
	case SCHEME_UNIX:
		parsed = Address{Scheme: SCHEME_UNIX, Path: rest}
	case SCHEME_TCP, SCHEME_TCPS:
		host, port := rest, DEFAULT_PORT
		if colon := strings.LastIndex(rest, ":"); colon >= 0 {
			host, port = rest[:colon], rest[colon+1:]
		}
		if host == "" {
			host = DEFAULT_HOST
		}
		parsed = Address{Scheme: scheme, Host: host, Port: port}
	default:
		err = fmt.Errorf("unsupported scheme %q in address %q", scheme, addr)
	}
	return
}

func Listen(addr string) (listener net.Listener, err error) {
	parsed, err := ParseAddress(addr)
	if err != nil {
		return
	}
	switch parsed.Scheme {
	case SCHEME_TCP:
		listener, err = net.Listen("tcp", net.JoinHostPort(parsed.Host, parsed.Port))
	case SCHEME_TCPS:
		err = fmt.Errorf("listening with TLS requires ListenTLS")
	case SCHEME_UNIX:
		listener, err = listenUnix(parsed.Path)
	default:
		err = fmt.Errorf("cannot listen on relative address %q", addr)
	}
	return
}

func ListenTLS(addr string, config *tls.Config) (listener net.Listener, err error) {
	parsed, err := ParseAddress(addr)
	if err != nil {
		return
	}
	if parsed.Scheme != SCHEME_TCPS {
		err = fmt.Errorf("address %q is not a tcps address", addr)
		return
	}
	listener, err = tls.Listen("tcp", net.JoinHostPort(parsed.Host, parsed.Port), config)
	return
}

func Dial(addr string) (conn net.Conn, err error) {
	parsed, err := ParseAddress(addr)
	if err != nil {
		return
	}
	switch parsed.Scheme {
	case SCHEME_TCP:
		conn, err = net.Dial("tcp", net.JoinHostPort(parsed.Host, parsed.Port))
	case SCHEME_TCPS:
		conn, err = tls.Dial("tcp", net.JoinHostPort(parsed.Host, parsed.Port), &tls.Config{})
	case SCHEME_UNIX:
		conn, err = dialUnix(parsed.Path)
	default:
		err = fmt.Errorf("relative address %q must be resolved through a directory first", addr)
	}
	return
}
