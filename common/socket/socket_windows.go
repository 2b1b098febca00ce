//go:build windows
// +build windows

package socket

import (
	"net"
	"strings"

	"github.com/Microsoft/go-winio"
)

const PIPE_PREFIX = `\\.\pipe\`

func pipeName(path string) string {
	name := strings.NewReplacer("/", "-", `\`, "-").Replace(strings.Trim(path, `/\`))
	return PIPE_PREFIX + "qi-" + name
}

func listenUnix(path string) (listener net.Listener, err error) {
	listener, err = winio.ListenPipe(pipeName(path), nil)
	return
}

func dialUnix(path string) (conn net.Conn, err error) {
	conn, err = winio.DialPipe(pipeName(path), nil)
	return
}
