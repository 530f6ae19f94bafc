package docker

import (
	"context"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
)

// MockAPI implements APIClient for tests. Unset funcs return empty results.
type MockAPI struct {
	PingFunc             func(ctx context.Context) (types.Ping, error)
	ContainerListFunc    func(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspectFunc func(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerStatsFunc   func(ctx context.Context, containerID string, stream bool) (container.StatsResponseReader, error)
	EventsFunc           func(ctx context.Context, options events.ListOptions) (<-chan events.Message, <-chan error)
	CloseFunc            func() error
}

func (m *MockAPI) Ping(ctx context.Context) (types.Ping, error) {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return types.Ping{APIVersion: "1.47", OSType: "linux"}, nil
}

func (m *MockAPI) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	if m.ContainerListFunc != nil {
		return m.ContainerListFunc(ctx, options)
	}
	return []container.Summary{}, nil
}

func (m *MockAPI) ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error) {
	if m.ContainerInspectFunc != nil {
		return m.ContainerInspectFunc(ctx, containerID)
	}
	return container.InspectResponse{}, nil
}

func (m *MockAPI) ContainerStats(ctx context.Context, containerID string, stream bool) (container.StatsResponseReader, error) {
	if m.ContainerStatsFunc != nil {
		return m.ContainerStatsFunc(ctx, containerID, stream)
	}
	return container.StatsResponseReader{Body: io.NopCloser(strings.NewReader("")), OSType: "linux"}, nil
}

func (m *MockAPI) Events(ctx context.Context, options events.ListOptions) (<-chan events.Message, <-chan error) {
	if m.EventsFunc != nil {
		return m.EventsFunc(ctx, options)
	}
	msgs := make(chan events.Message)
	errs := make(chan error)
	return msgs, errs
}

func (m *MockAPI) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
