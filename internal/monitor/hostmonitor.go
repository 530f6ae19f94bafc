package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/dtui/internal/docker"
	dterrors "github.com/rileyhilliard/dtui/internal/errors"
	"github.com/rileyhilliard/dtui/internal/host"
	"github.com/rileyhilliard/dtui/internal/logger"
)

// DefaultConnectTimeout bounds connecting to and pinging a host.
const DefaultConnectTimeout = 10 * time.Second

// HostMonitor supervises one host: its client, its lifecycle subscription and
// its container streamers.
type HostMonitor struct {
	spec    host.Spec
	id      string
	connect Connector
	out     chan<- Event
	log     logger.Logger

	connectTimeout time.Duration
	smoothing      float64

	state atomic.Int32
	reg   *registry
}

// NewHostMonitor creates a monitor for spec that publishes to out.
func NewHostMonitor(spec host.Spec, connect Connector, out chan<- Event, opts ...HostOption) *HostMonitor {
	m := &HostMonitor{
		spec:           spec,
		id:             spec.ID(),
		connect:        connect,
		out:            out,
		log:            logger.Noop(),
		connectTimeout: DefaultConnectTimeout,
		reg:            newRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HostOption configures a HostMonitor.
type HostOption func(*HostMonitor)

// WithHostLogger sets the logger. The host id is added as a prefix.
func WithHostLogger(l logger.Logger) HostOption {
	return func(m *HostMonitor) {
		if l != nil {
			m.log = logger.WithPrefix(l, "[host "+m.id+"]")
		}
	}
}

// WithConnectTimeout bounds the connect and ping of the host.
func WithConnectTimeout(d time.Duration) HostOption {
	return func(m *HostMonitor) {
		if d > 0 {
			m.connectTimeout = d
		}
	}
}

// WithSmoothing sets the EMA factor applied by the host's streamers.
func WithSmoothing(alpha float64) HostOption {
	return func(m *HostMonitor) {
		m.smoothing = alpha
	}
}

// ID returns the host identifier.
func (m *HostMonitor) ID() string {
	return m.id
}

// State returns the current lifecycle state. Safe to call from any goroutine.
func (m *HostMonitor) State() HostState {
	return HostState(m.state.Load())
}

// Run drives the host until ctx is cancelled or the host fails. Failures are
// logged and reported as HostStatus events, never returned, so one bad host
// cannot take the others down.
func (m *HostMonitor) Run(ctx context.Context) error {
	m.transition(ctx, HostConnecting, nil)

	client, err := m.dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			err = nil
		} else {
			m.log.Error("connect failed: %s", dterrors.Summary(err))
		}
		m.transition(ctx, HostStopped, err)
		return nil
	}

	lifeCtx, stopLifecycle := context.WithCancel(ctx)
	defer stopLifecycle()

	// Subscribe before listing so a container that starts in between is seen.
	lifecycle, lifeErrs := client.Lifecycle(lifeCtx)

	infos, err := client.ListContainers(ctx)
	if err != nil {
		if ctx.Err() != nil {
			m.shutdown(ctx, client, nil)
			return nil
		}
		m.log.Error("listing containers failed: %v", err)
		m.fail(ctx, client, err)
		return nil
	}

	m.transition(ctx, HostActive, nil)

	containers := make([]Container, 0, len(infos))
	for _, info := range infos {
		containers = append(containers, containerFromInfo(m.id, info))
	}
	send(ctx, m.out, InitialList{HostID: m.id, Containers: containers})
	for _, c := range containers {
		m.spawn(ctx, client, c.Key())
	}
	m.log.Info("monitoring %d containers", len(containers))

	for {
		select {
		case <-ctx.Done():
			m.shutdown(ctx, client, nil)
			return nil

		case ev, ok := <-lifecycle:
			if !ok {
				err := lifecycleError(ctx, lifeErrs)
				if ctx.Err() != nil {
					m.shutdown(ctx, client, nil)
					return nil
				}
				m.log.Error("lifecycle stream ended: %v", err)
				m.fail(ctx, client, err)
				return nil
			}
			m.handle(ctx, client, ev)
		}
	}
}

func (m *HostMonitor) dial(ctx context.Context) (Client, error) {
	cctx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	client, err := m.connect(cctx, m.spec)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(cctx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// handle applies one lifecycle event to the registry and emits the matching
// container event.
func (m *HostMonitor) handle(ctx context.Context, client Client, ev docker.LifecycleEvent) {
	key := ContainerKey{HostID: m.id, ID: ev.ID}

	switch ev.Action {
	case docker.ActionStart:
		c := m.describe(ctx, client, ev)
		if !send(ctx, m.out, Created{Container: c}) {
			return
		}
		if m.reg.live(key) {
			return
		}
		m.spawn(ctx, client, key)
		m.log.Debug("container %s (%s) started", c.Name, c.ID)

	case docker.ActionDie, docker.ActionStop:
		if !m.reg.cancel(key) {
			return
		}
		send(ctx, m.out, Destroyed{Key: key})
		m.log.Debug("container %s %s", ev.ID, ev.Action)
	}
}

// describe builds the Container for a start event, preferring a fresh inspect
// and falling back to what the event itself carries.
func (m *HostMonitor) describe(ctx context.Context, client Client, ev docker.LifecycleEvent) Container {
	info, err := client.InspectContainer(ctx, ev.ID)
	if err != nil {
		m.log.Debug("inspect %s failed, using event data: %v", ev.ID, err)
		info = docker.ContainerInfo{Status: "running", Created: time.Now()}
	}
	if info.ID == "" {
		info.ID = ev.ID
	}
	if info.Name == "" {
		info.Name = ev.Name
	}
	return containerFromInfo(m.id, info)
}

func (m *HostMonitor) spawn(ctx context.Context, client Client, key ContainerKey) {
	s := &streamer{key: key, client: client, out: m.out, log: m.log, smoothing: m.smoothing}
	m.reg.spawn(ctx, key, s.run)
}

// shutdown is the ShuttingDown state: stop streamers, wait, close the client.
func (m *HostMonitor) shutdown(ctx context.Context, client Client, err error) {
	m.transition(ctx, HostShuttingDown, nil)
	m.reg.cancelAll()
	if cerr := client.Close(); cerr != nil {
		m.log.Debug("close: %v", cerr)
	}
	m.transition(ctx, HostStopped, err)
}

// fail stops a host whose engine went away while ctx is still live. Its
// containers are withdrawn so the state only holds containers being watched.
func (m *HostMonitor) fail(ctx context.Context, client Client, err error) {
	for _, key := range m.reg.keys() {
		m.reg.cancel(key)
		send(ctx, m.out, Destroyed{Key: key})
	}
	m.reg.cancelAll()
	if cerr := client.Close(); cerr != nil {
		m.log.Debug("close: %v", cerr)
	}
	m.transition(ctx, HostStopped, err)
}

// transition records the new state and reports it to the aggregator. The
// ShuttingDown and Stopped reports outlive ctx: the aggregator drains them
// after a quit, for at most its grace period.
func (m *HostMonitor) transition(ctx context.Context, state HostState, err error) {
	m.state.Store(int32(state))
	ev := HostStatus{HostID: m.id, State: state}
	if err != nil {
		ev.Err = dterrors.Summary(err)
	}
	if ctx.Err() != nil && (state == HostShuttingDown || state == HostStopped) {
		sendWithin(m.out, ev, DefaultGracePeriod)
		return
	}
	send(ctx, m.out, ev)
}

// lifecycleError fetches the reason a lifecycle subscription closed.
func lifecycleError(ctx context.Context, errs <-chan error) error {
	select {
	case err, ok := <-errs:
		if ok && err != nil {
			return err
		}
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("event stream closed")
}

// String implements fmt.Stringer.
func (m *HostMonitor) String() string {
	return fmt.Sprintf("%s (%s)", m.id, m.State())
}
