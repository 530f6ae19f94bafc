package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rileyhilliard/dtui/internal/docker"
	"github.com/rileyhilliard/dtui/internal/host"
	"github.com/rileyhilliard/dtui/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHost(t *testing.T, hm *HostMonitor) (cancel context.CancelFunc, done <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		assert.NoError(t, hm.Run(ctx))
	}()
	t.Cleanup(cancel)
	return cancel, finished
}

func expectStatus(t *testing.T, out <-chan Event, want HostState) HostStatus {
	t.Helper()
	ev := nextEvent(t, out)
	hs, ok := ev.(HostStatus)
	require.True(t, ok, "expected HostStatus, got %#v", ev)
	assert.Equal(t, want, hs.State)
	return hs
}

func TestHostMonitor_ConnectFailure(t *testing.T) {
	out := make(chan Event, 16)
	log := logger.NewBufferLogger()
	connect := func(ctx context.Context, spec host.Spec) (Client, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	hm := NewHostMonitor(host.MustParse("tcp://server1:2375"), connect, out, WithHostLogger(log))
	_, done := runHost(t, hm)

	expectStatus(t, out, HostConnecting)
	hs := expectStatus(t, out, HostStopped)
	assert.Equal(t, "server1", hs.HostID)
	assert.Contains(t, hs.Err, "connection refused")

	waitDone(t, done)
	assert.Equal(t, HostStopped, hm.State())
	assert.True(t, log.HasLevel("error"))
	assert.Contains(t, log.Messages()[0].Message, "[host server1]")
}

func TestHostMonitor_PingFailureClosesClient(t *testing.T) {
	client := newFakeClient()
	client.pingErr = errors.New("engine unavailable")
	out := make(chan Event, 16)
	hm := NewHostMonitor(host.MustParse("local"), client.connector(), out)
	_, done := runHost(t, hm)

	expectStatus(t, out, HostConnecting)
	hs := expectStatus(t, out, HostStopped)
	assert.Contains(t, hs.Err, "engine unavailable")
	waitDone(t, done)
	assert.True(t, client.closed.Load())
}

func TestHostMonitor_ConnectTimeout(t *testing.T) {
	out := make(chan Event, 16)
	connect := func(ctx context.Context, spec host.Spec) (Client, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	hm := NewHostMonitor(host.MustParse("ssh://deploy@slow"), connect, out, WithConnectTimeout(20*time.Millisecond))
	_, done := runHost(t, hm)

	expectStatus(t, out, HostConnecting)
	hs := expectStatus(t, out, HostStopped)
	assert.Contains(t, hs.Err, "deadline exceeded")
	waitDone(t, done)
}

func TestHostMonitor_ListFailure(t *testing.T) {
	client := newFakeClient()
	client.listErr = errors.New("permission denied")
	out := make(chan Event, 16)
	_, done := runHost(t, NewHostMonitor(host.MustParse("local"), client.connector(), out))

	expectStatus(t, out, HostConnecting)
	hs := expectStatus(t, out, HostStopped)
	assert.Contains(t, hs.Err, "permission denied")
	waitDone(t, done)
	assert.True(t, client.closed.Load())
}

func TestHostMonitor_Lifecycle(t *testing.T) {
	client := newFakeClient(docker.ContainerInfo{ID: "aaa", Name: "web", Status: "running"})
	out := make(chan Event, 64)
	hm := NewHostMonitor(host.MustParse("local"), client.connector(), out)
	cancel, done := runHost(t, hm)

	expectStatus(t, out, HostConnecting)
	expectStatus(t, out, HostActive)

	il, ok := nextEvent(t, out).(InitialList)
	require.True(t, ok)
	assert.Equal(t, "local", il.HostID)
	require.Len(t, il.Containers, 1)
	assert.Equal(t, "web", il.Containers[0].Name)
	assert.Equal(t, HostActive, hm.State())

	// Stats for the listed container.
	aaa := client.stream(t, "aaa")
	aaa.samples <- sample(100, 1000, 1)
	aaa.samples <- sample(200, 1100, 1)
	first := nextEvent(t, out).(StatUpdate)
	assert.Zero(t, first.Metrics.CPU)
	second := nextEvent(t, out).(StatUpdate)
	assert.InDelta(t, 100.0, second.Metrics.CPU, 1e-9)

	// A start with no inspect data falls back to the event's name.
	client.lifecycle <- docker.LifecycleEvent{Action: docker.ActionStart, ID: "bbb", Name: "worker"}
	created, ok := nextEvent(t, out).(Created)
	require.True(t, ok)
	assert.Equal(t, ContainerKey{"local", "bbb"}, created.Container.Key())
	assert.Equal(t, "worker", created.Container.Name)
	bbb := client.stream(t, "bbb")

	// A repeated start refreshes the record without a second streamer; an
	// unknown die is ignored.
	client.lifecycle <- docker.LifecycleEvent{Action: docker.ActionStart, ID: "bbb", Name: "worker"}
	again, ok := nextEvent(t, out).(Created)
	require.True(t, ok)
	assert.Equal(t, ContainerKey{"local", "bbb"}, again.Container.Key())
	client.lifecycle <- docker.LifecycleEvent{Action: docker.ActionDie, ID: "zzz"}
	expectNoEvent(t, out, 50*time.Millisecond)
	assert.Equal(t, 1, client.calls("bbb"))

	client.lifecycle <- docker.LifecycleEvent{Action: docker.ActionDie, ID: "bbb"}
	destroyed, ok := nextEvent(t, out).(Destroyed)
	require.True(t, ok)
	assert.Equal(t, ContainerKey{"local", "bbb"}, destroyed.Key)
	require.Eventually(t, bbb.isClosed, time.Second, 5*time.Millisecond)

	cancel()
	waitDone(t, done)
	assert.Equal(t, HostStopped, hm.State())
	assert.True(t, client.closed.Load())
	assert.True(t, aaa.isClosed())

	// The terminal states are still reported after cancellation.
	expectStatus(t, out, HostShuttingDown)
	hs := expectStatus(t, out, HostStopped)
	assert.Empty(t, hs.Err)
}

func TestHostMonitor_RepeatedStartOfListedContainer(t *testing.T) {
	client := newFakeClient(docker.ContainerInfo{ID: "aaa", Name: "web", Status: "running"})
	client.inspect["aaa"] = docker.ContainerInfo{ID: "aaa", Name: "web", Status: "Up 1 second"}
	out := make(chan Event, 16)
	cancel, done := runHost(t, NewHostMonitor(host.MustParse("local"), client.connector(), out))

	expectStatus(t, out, HostConnecting)
	expectStatus(t, out, HostActive)
	nextEvent(t, out)
	client.stream(t, "aaa")

	client.lifecycle <- docker.LifecycleEvent{Action: docker.ActionStart, ID: "aaa", Name: "web"}
	created, ok := nextEvent(t, out).(Created)
	require.True(t, ok)
	assert.Equal(t, "Up 1 second", created.Container.Status)
	expectNoEvent(t, out, 50*time.Millisecond)
	assert.Equal(t, 1, client.calls("aaa"))

	cancel()
	waitDone(t, done)
}

func TestHostMonitor_StartUsesInspect(t *testing.T) {
	client := newFakeClient()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client.inspect["ccc"] = docker.ContainerInfo{ID: "ccc", Name: "db", Status: "running", Created: created}
	out := make(chan Event, 16)
	cancel, done := runHost(t, NewHostMonitor(host.MustParse("local"), client.connector(), out))

	expectStatus(t, out, HostConnecting)
	expectStatus(t, out, HostActive)
	nextEvent(t, out)

	client.lifecycle <- docker.LifecycleEvent{Action: docker.ActionStart, ID: "ccc", Name: "stale-name"}
	ev := nextEvent(t, out).(Created)
	assert.Equal(t, "db", ev.Container.Name)
	assert.Equal(t, created, ev.Container.Created)
	assert.Equal(t, "local", ev.Container.HostID)

	client.lifecycle <- docker.LifecycleEvent{Action: docker.ActionStop, ID: "ccc"}
	assert.IsType(t, Destroyed{}, nextEvent(t, out))

	cancel()
	waitDone(t, done)
}

func TestHostMonitor_LifecycleFailureWithdrawsContainers(t *testing.T) {
	client := newFakeClient(
		docker.ContainerInfo{ID: "aaa", Name: "web"},
		docker.ContainerInfo{ID: "bbb", Name: "db"},
	)
	out := make(chan Event, 64)
	log := logger.NewBufferLogger()
	hm := NewHostMonitor(host.MustParse("local"), client.connector(), out, WithHostLogger(log))
	_, done := runHost(t, hm)

	expectStatus(t, out, HostConnecting)
	expectStatus(t, out, HostActive)
	nextEvent(t, out)
	client.stream(t, "aaa")
	client.stream(t, "bbb")

	client.lifeErrs <- errors.New("unexpected EOF")
	close(client.lifecycle)

	withdrawn := map[ContainerKey]bool{}
	for i := 0; i < 2; i++ {
		d, ok := nextEvent(t, out).(Destroyed)
		require.True(t, ok)
		withdrawn[d.Key] = true
	}
	assert.Equal(t, map[ContainerKey]bool{{"local", "aaa"}: true, {"local", "bbb"}: true}, withdrawn)

	hs := expectStatus(t, out, HostStopped)
	assert.Contains(t, hs.Err, "unexpected EOF")

	waitDone(t, done)
	assert.True(t, client.closed.Load())
	assert.True(t, log.HasLevel("error"))
}

func TestHostMonitor_CancelBeforeConnect(t *testing.T) {
	out := make(chan Event, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	connect := func(ctx context.Context, spec host.Spec) (Client, error) {
		called = true
		return nil, ctx.Err()
	}
	hm := NewHostMonitor(host.MustParse("local"), connect, out)
	require.NoError(t, hm.Run(ctx))

	assert.True(t, called)
	assert.Equal(t, HostStopped, hm.State())
	hs := expectStatus(t, out, HostStopped)
	assert.Empty(t, hs.Err, "cancellation is not a failure")
	assert.Empty(t, out)
}

func TestHostMonitor_String(t *testing.T) {
	hm := NewHostMonitor(host.MustParse("ssh://deploy@web1:2222"), nil, nil)
	assert.Equal(t, "deploy@web1", hm.ID())
	assert.Equal(t, "deploy@web1 (connecting)", hm.String())
}
