package socket

import (
	"testing"
)

func TestParseAddress(t *testing.T) {
	cases := []struct {
		in       string
		expected Address
	}{
		{"tcp://host:1234", Address{Scheme: "tcp", Host: "host", Port: "1234"}},
		{"tcp://host", Address{Scheme: "tcp", Host: "host", Port: "9559"}},
		{"tcp://:1234", Address{Scheme: "tcp", Host: "localhost", Port: "1234"}},
		{"tcps://host:1234", Address{Scheme: "tcps", Host: "host", Port: "1234"}},
		{"unix:///tmp/qi.sock", Address{Scheme: "unix", Path: "/tmp/qi.sock"}},
		{"qi:ServiceDirectory", Address{Scheme: "qi", Name: "ServiceDirectory"}},
	}
	for _, c := range cases {
		parsed, err := ParseAddress(c.in)
		if err != nil {
			t.Fatalf("%q: %s", c.in, err)
		}
		if parsed != c.expected {
			t.Fatalf("%q parsed to %+v, expected %+v", c.in, parsed, c.expected)
		}
	}
}

func TestParseAddressErrors(t *testing.T) {
	for _, in := range []string{"", "host:1234", "ftp://host:1234", "qi:"} {
		if _, err := ParseAddress(in); err == nil {
			t.Fatalf("%q must not parse", in)
		}
	}
}

func TestRelativeAddressRoundTrip(t *testing.T) {
	parsed, err := ParseAddress("qi:Calculator")
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.IsRelative() {
		t.Fatal("qi addresses are relative")
	}
	if parsed.String() != "qi:Calculator" {
		t.Fatal("round trip gave", parsed.String())
	}
}

func TestListenAndDialTCP(t *testing.T) {
	listener, err := Listen("tcp://localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	done := make(chan error, 1)
	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			conn.Close()
		}
		done <- acceptErr
	}()

	conn, err := Dial("tcp://" + listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	conn.Close()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
