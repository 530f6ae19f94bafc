// Package host describes the container-engine endpoints dtui monitors and
// derives the stable identifiers used to group their containers.
package host

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rileyhilliard/dtui/internal/errors"
)

// Protocol is the transport used to reach a container engine.
type Protocol string

const (
	// ProtocolLocal talks to the engine socket on this machine.
	ProtocolLocal Protocol = "local"
	// ProtocolSSH tunnels to the engine socket of a remote machine over SSH.
	ProtocolSSH Protocol = "ssh"
	// ProtocolTCP talks to an engine exposing its API on a TCP port.
	ProtocolTCP Protocol = "tcp"
)

// LocalID is the identifier of the local engine.
const LocalID = "local"

// DefaultRemoteSocket is the engine socket dialed on the far side of an SSH tunnel.
const DefaultRemoteSocket = "/var/run/docker.sock"

// Spec is an immutable connection descriptor for one engine.
type Spec struct {
	Protocol Protocol
	// Address is the raw connection string ("local", "ssh://user@host:22", ...).
	Address string
	// Dashboard is an optional external link for this host (e.g. a Dozzle URL).
	Dashboard string
}

// Parse builds a Spec from a connection string:
//
//	local
//	unix:///path/to/docker.sock
//	ssh://user@host[:port][?socket=/path]
//	tcp://host:port
func Parse(raw string) (Spec, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == LocalID:
		return Spec{Protocol: ProtocolLocal, Address: LocalID}, nil
	case strings.HasPrefix(raw, "unix://"):
		if strings.TrimPrefix(raw, "unix://") == "" {
			return Spec{}, invalid(raw, "socket path is empty")
		}
		return Spec{Protocol: ProtocolLocal, Address: raw}, nil
	case strings.HasPrefix(raw, "ssh://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Spec{}, invalid(raw, err.Error())
		}
		if u.Hostname() == "" {
			return Spec{}, invalid(raw, "host name is empty")
		}
		return Spec{Protocol: ProtocolSSH, Address: raw}, nil
	case strings.HasPrefix(raw, "tcp://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Spec{}, invalid(raw, err.Error())
		}
		if u.Hostname() == "" {
			return Spec{}, invalid(raw, "host name is empty")
		}
		return Spec{Protocol: ProtocolTCP, Address: raw}, nil
	default:
		return Spec{}, invalid(raw, "unknown scheme")
	}
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) Spec {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// WithDashboard returns a copy of s carrying the given dashboard link.
func (s Spec) WithDashboard(link string) Spec {
	s.Dashboard = link
	return s
}

// ID returns the grouping key for this host: "local" for local engines,
// "user@host" for SSH and "host" for TCP. Scheme and port are stripped.
func (s Spec) ID() string {
	switch s.Protocol {
	case ProtocolSSH, ProtocolTCP:
		u, err := url.Parse(s.Address)
		if err != nil {
			return s.Address
		}
		if u.User != nil && u.User.Username() != "" {
			return u.User.Username() + "@" + u.Hostname()
		}
		return u.Hostname()
	default:
		return LocalID
	}
}

// SSHTarget returns the "user@host:port" string handed to the SSH dialer.
func (s Spec) SSHTarget() string {
	u, err := url.Parse(s.Address)
	if err != nil {
		return strings.TrimPrefix(s.Address, "ssh://")
	}
	if u.User == nil || u.User.Username() == "" {
		return u.Host
	}
	return u.User.Username() + "@" + u.Host
}

// RemoteSocket returns the engine socket to dial through an SSH tunnel.
func (s Spec) RemoteSocket() string {
	u, err := url.Parse(s.Address)
	if err == nil {
		if sock := u.Query().Get("socket"); sock != "" {
			return sock
		}
	}
	return DefaultRemoteSocket
}

// DockerHost returns the engine API address for local and TCP specs, or ""
// when the client should fall back to its environment defaults.
func (s Spec) DockerHost() string {
	switch s.Protocol {
	case ProtocolTCP:
		return s.Address
	case ProtocolLocal:
		if s.Address != LocalID {
			return s.Address
		}
	}
	return ""
}

// String implements fmt.Stringer.
func (s Spec) String() string {
	return s.Address
}

func invalid(raw, why string) error {
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("Invalid host '%s': %s", raw, why),
		"Use 'local', 'unix:///path', 'ssh://user@host[:port]', or 'tcp://host:port'")
}
