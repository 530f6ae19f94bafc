package monitor

import (
	"context"
	"time"

	"github.com/rileyhilliard/dtui/internal/docker"
	"github.com/rileyhilliard/dtui/internal/host"
)

// ContainerKey identifies a container across all hosts.
type ContainerKey struct {
	HostID string
	ID     string
}

func (k ContainerKey) String() string {
	return k.HostID + "/" + k.ID
}

// Metrics are derived resource-usage percentages for one container.
type Metrics struct {
	CPU    float64 // 0..100 per CPU, so up to 100*N on N CPUs
	Memory float64 // 0..100
}

// Container is the engine's view of one running container.
type Container struct {
	ID      string
	Name    string
	HostID  string
	Status  string
	Created time.Time
	// Metrics is nil until the first stats sample arrives.
	Metrics *Metrics
}

// Key returns the container's primary key.
func (c Container) Key() ContainerKey {
	return ContainerKey{HostID: c.HostID, ID: c.ID}
}

func containerFromInfo(hostID string, info docker.ContainerInfo) Container {
	return Container{
		ID:      info.ID,
		Name:    info.Name,
		HostID:  hostID,
		Status:  info.Status,
		Created: info.Created,
	}
}

// HostState is the lifecycle state of a HostMonitor.
type HostState int

const (
	HostConnecting HostState = iota
	HostActive
	HostShuttingDown
	HostStopped
)

func (s HostState) String() string {
	switch s {
	case HostConnecting:
		return "connecting"
	case HostActive:
		return "active"
	case HostShuttingDown:
		return "shutting down"
	case HostStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Client is the engine capability a HostMonitor needs. *docker.Client
// satisfies it.
type Client interface {
	Ping(ctx context.Context) error
	ListContainers(ctx context.Context) ([]docker.ContainerInfo, error)
	InspectContainer(ctx context.Context, id string) (docker.ContainerInfo, error)
	// Lifecycle delivers start/die/stop events until ctx is cancelled or the
	// subscription fails. A failure is sent on the error channel before the
	// event channel closes.
	Lifecycle(ctx context.Context) (<-chan docker.LifecycleEvent, <-chan error)
	StreamStats(ctx context.Context, id string) (docker.StatsStream, error)
	Close() error
}

// Connector builds a Client for a host. It must not block past ctx.
type Connector func(ctx context.Context, spec host.Spec) (Client, error)

// Display receives a fresh View on every render tick. Render must return
// quickly; it runs on the aggregator goroutine.
type Display interface {
	Render(View)
}

// Closer is implemented by displays that need to be told the engine is gone.
type Closer interface {
	Close()
}
