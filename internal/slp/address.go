// Package slp implements a client for the Minecraft Server List Ping protocol:
// varint framing, the status handshake, and status response decoding.
package slp

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the standard Minecraft server port.
const DefaultPort uint16 = 25565

// maxHostBytes caps the hostname length before it is encoded into the
// handshake, so absurd input fails before any network activity.
const maxHostBytes = 255

// ServerAddress identifies a probe target. Construct it with NewServerAddress
// or ParseAddress so the host is validated up front.
type ServerAddress struct {
	Host string
	Port uint16
}

// NewServerAddress validates the host and builds a ServerAddress.
// A zero port falls back to DefaultPort.
func NewServerAddress(host string, port uint16) (ServerAddress, error) {
	if host == "" {
		return ServerAddress{}, errors.New("empty host")
	}
	if len(host) > maxHostBytes {
		return ServerAddress{}, fmt.Errorf("host exceeds %d bytes", maxHostBytes)
	}
	if port == 0 {
		port = DefaultPort
	}

	return ServerAddress{Host: host, Port: port}, nil
}

// ParseAddress parses "host" or "host:port" as received from user input.
// When the port is absent, defaultPort is used (or DefaultPort if zero).
func ParseAddress(s string, defaultPort uint16) (ServerAddress, error) {
	host, portStr, found := strings.Cut(s, ":")

	port := defaultPort
	if found {
		n, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return ServerAddress{}, fmt.Errorf("invalid port %q", portStr)
		}
		port = uint16(n)
	}

	return NewServerAddress(host, port)
}

// String returns the dialable "host:port" form.
func (a ServerAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}
