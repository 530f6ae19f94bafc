// Package docker talks to Docker engines over a local socket, plain TCP or an
// SSH tunnel, and translates their API into the small set of types the
// monitor consumes.
package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/client"
	"github.com/rileyhilliard/dtui/internal/errors"
	"github.com/rileyhilliard/dtui/internal/host"
	"github.com/rileyhilliard/dtui/pkg/sshutil"
)

// APIClient defines the subset of Docker API methods we use.
// This allows for mocking in tests.
type APIClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerStats(ctx context.Context, containerID string, stream bool) (container.StatsResponseReader, error)
	Events(ctx context.Context, options events.ListOptions) (<-chan events.Message, <-chan error)
	Close() error
}

// Client is a connection to one engine.
type Client struct {
	api    APIClient
	tunnel io.Closer // SSH connection behind the API client, if any
	hostID string
}

// NewClient wraps an existing API client. Used by tests and by Connect.
func NewClient(api APIClient, hostID string) *Client {
	return &Client{api: api, hostID: hostID}
}

// Connect builds a client for spec. For SSH specs the SSH connection is made
// here, bounded by timeout; the engine itself is not contacted until Ping.
func Connect(ctx context.Context, spec host.Spec, timeout time.Duration) (*Client, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}

	var tunnel *sshutil.Client
	switch spec.Protocol {
	case host.ProtocolSSH:
		var err error
		tunnel, err = sshutil.Dial(ctx, spec.SSHTarget(), timeout)
		if err != nil {
			return nil, err
		}
		// The host name is never resolved; every request is dialed through
		// the tunnel to the remote socket.
		opts = append(opts,
			client.WithHost("http://docker"),
			client.WithDialContext(tunnel.SocketDialer(spec.RemoteSocket())))
	case host.ProtocolTCP:
		opts = append(opts, client.WithHost(spec.DockerHost()))
	default:
		if addr := spec.DockerHost(); addr != "" {
			opts = append(opts, client.WithHost(addr))
		} else {
			opts = append([]client.Opt{client.FromEnv}, opts...)
		}
	}

	api, err := client.NewClientWithOpts(opts...)
	if err != nil {
		if tunnel != nil {
			tunnel.Close()
		}
		return nil, errors.WrapWithCode(err, errors.ErrDocker,
			fmt.Sprintf("Couldn't create a Docker client for '%s'", spec.Address),
			"Check the host string; for local engines check DOCKER_HOST.")
	}

	c := NewClient(api, spec.ID())
	if tunnel != nil {
		c.tunnel = tunnel
	}
	return c, nil
}

// HostID returns the identifier of the host this client talks to.
func (c *Client) HostID() string {
	return c.hostID
}

// Ping verifies the engine answers.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.Ping(ctx); err != nil {
		return errors.WrapWithCode(err, errors.ErrDocker,
			fmt.Sprintf("Docker on '%s' isn't answering", c.hostID),
			"Is the Docker daemon running, and can this user reach its socket?")
	}
	return nil
}

// ListContainers returns the running containers.
func (c *Client) ListContainers(ctx context.Context) ([]ContainerInfo, error) {
	list, err := c.api.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list containers on %s: %w", c.hostID, err)
	}

	out := make([]ContainerInfo, 0, len(list))
	for _, s := range list {
		out = append(out, fromSummary(s))
	}
	return out, nil
}

// InspectContainer fetches the current details of one container.
func (c *Client) InspectContainer(ctx context.Context, id string) (ContainerInfo, error) {
	resp, err := c.api.ContainerInspect(ctx, id)
	if err != nil {
		return ContainerInfo{}, fmt.Errorf("inspect %s on %s: %w", id, c.hostID, err)
	}
	return fromInspect(resp), nil
}

// Close releases the API client and any SSH tunnel under it.
func (c *Client) Close() error {
	err := c.api.Close()
	if c.tunnel != nil {
		if terr := c.tunnel.Close(); err == nil {
			err = terr
		}
	}
	return err
}

func fromSummary(s container.Summary) ContainerInfo {
	return ContainerInfo{
		ID:      ShortID(s.ID),
		Name:    ContainerName(s.Names...),
		Status:  string(s.State),
		Created: time.Unix(s.Created, 0),
	}
}

func fromInspect(r container.InspectResponse) ContainerInfo {
	info := ContainerInfo{Status: string(container.StateRunning)}
	if r.ContainerJSONBase == nil {
		return info
	}
	info.ID = ShortID(r.ID)
	info.Name = ContainerName(r.Name)
	if r.State != nil && r.State.Status != "" {
		info.Status = string(r.State.Status)
	}
	if t, err := time.Parse(time.RFC3339Nano, r.Created); err == nil {
		info.Created = t
	}
	return info
}
