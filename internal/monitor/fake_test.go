package monitor

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rileyhilliard/dtui/internal/docker"
	"github.com/rileyhilliard/dtui/internal/host"
	"github.com/stretchr/testify/require"
)

// fakeStream is a StatsStream fed by the test.
type fakeStream struct {
	samples chan docker.StatsSample
	errs    chan error
	closed  chan struct{}
	once    sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		samples: make(chan docker.StatsSample),
		errs:    make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (s *fakeStream) Next() (docker.StatsSample, error) {
	select {
	case smp, ok := <-s.samples:
		if !ok {
			return docker.StatsSample{}, io.EOF
		}
		return smp, nil
	case err := <-s.errs:
		return docker.StatsSample{}, err
	case <-s.closed:
		return docker.StatsSample{}, errors.New("use of closed stream")
	}
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// fakeClient is an in-memory engine.
type fakeClient struct {
	mu         sync.Mutex
	containers []docker.ContainerInfo
	inspect    map[string]docker.ContainerInfo
	streams    map[string]*fakeStream
	statsCalls map[string]int
	statsErr   error

	pingErr error
	listErr error

	lifecycle chan docker.LifecycleEvent
	lifeErrs  chan error

	closed atomic.Bool
}

var _ Client = (*fakeClient)(nil)

func newFakeClient(containers ...docker.ContainerInfo) *fakeClient {
	return &fakeClient{
		containers: containers,
		inspect:    make(map[string]docker.ContainerInfo),
		streams:    make(map[string]*fakeStream),
		statsCalls: make(map[string]int),
		lifecycle:  make(chan docker.LifecycleEvent),
		lifeErrs:   make(chan error, 1),
	}
}

func (f *fakeClient) connector() Connector {
	return func(ctx context.Context, spec host.Spec) (Client, error) {
		return f, nil
	}
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) ListContainers(ctx context.Context) ([]docker.ContainerInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.containers, nil
}

func (f *fakeClient) InspectContainer(ctx context.Context, id string) (docker.ContainerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.inspect[id]
	if !ok {
		return docker.ContainerInfo{}, errors.New("no such container")
	}
	return info, nil
}

func (f *fakeClient) Lifecycle(ctx context.Context) (<-chan docker.LifecycleEvent, <-chan error) {
	return f.lifecycle, f.lifeErrs
}

func (f *fakeClient) StreamStats(ctx context.Context, id string) (docker.StatsStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls[id]++
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	s := newFakeStream()
	f.streams[id] = s
	return s, nil
}

func (f *fakeClient) Close() error {
	f.closed.Store(true)
	return nil
}

// stream waits for the streamer of id to open its stream.
func (f *fakeClient) stream(t *testing.T, id string) *fakeStream {
	t.Helper()
	var s *fakeStream
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		s = f.streams[id]
		return s != nil
	}, 2*time.Second, 5*time.Millisecond, "stream for %s never opened", id)
	return s
}

func (f *fakeClient) calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statsCalls[id]
}

// nextEvent reads one event or fails the test.
func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

// expectNoEvent fails if anything arrives on ch within d.
func expectNoEvent(t *testing.T, ch <-chan Event, d time.Duration) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(d):
	}
}

// recordingDisplay keeps every view it is given.
type recordingDisplay struct {
	mu     sync.Mutex
	views  []View
	closed bool
}

func (d *recordingDisplay) Render(v View) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views = append(d.views, v)
}

func (d *recordingDisplay) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *recordingDisplay) last() (View, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.views) == 0 {
		return View{}, false
	}
	return d.views[len(d.views)-1], true
}

func (d *recordingDisplay) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func sample(cpu, system uint64, cpus uint32) docker.StatsSample {
	return docker.StatsSample{CPUTotal: cpu, SystemCPU: system, OnlineCPUs: cpus, MemUsage: 256, MemLimit: 1024}
}
