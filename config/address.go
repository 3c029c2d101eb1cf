// Package config holds the forwarder's flag and YAML configuration plus
// the agent address grammar shared with SDK consumers.
package config

import (
	"strings"

	logflux "github.com/logflux-io/logflux-go-sdk"
)

// DefaultSocketPath is where a local agent listens when nothing else is
// configured.
const DefaultSocketPath = "/tmp/logflux-agent.sock"

// ParseAddress resolves an agent address string into a network kind and
// dial address. Three forms are accepted:
//
//	unix:///var/run/agent.sock
//	tcp://host:4446
//	/var/run/agent.sock (bare paths are unix sockets)
//
// An empty string selects the default local socket. There is no default
// TCP endpoint: remote delivery must be spelled out.
func ParseAddress(addr string) (network, address string, err error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "unix", DefaultSocketPath, nil
	}
	switch {
	case strings.HasPrefix(addr, "unix://"):
		path := strings.TrimPrefix(addr, "unix://")
		if path == "" {
			return "", "", &logflux.ConfigurationError{
				Field:  "address",
				Reason: "unix:// requires a socket path",
			}
		}
		return "unix", path, nil
	case strings.HasPrefix(addr, "tcp://"):
		hostport := strings.TrimPrefix(addr, "tcp://")
		if hostport == "" {
			return "", "", &logflux.ConfigurationError{
				Field:  "address",
				Reason: "tcp:// requires host:port",
			}
		}
		return "tcp", hostport, nil
	case strings.Contains(addr, "://"):
		return "", "", &logflux.ConfigurationError{
			Field:  "address",
			Reason: "unsupported scheme, use unix:// or tcp://",
		}
	default:
		return "unix", addr, nil
	}
}
