package telemetry

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rileyhilliard/dtui/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gauge returns the value of the series of family name whose labels include
// want, and whether it exists.
func gauge(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) (float64, bool) {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				if m.GetCounter() != nil {
					return m.GetCounter().GetValue(), true
				}
				return m.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}

func view(rows ...monitor.Row) monitor.View {
	return monitor.View{
		Rows: rows,
		Hosts: []monitor.HostSummary{
			{ID: "local", State: monitor.HostActive},
			{ID: "deploy@web1", State: monitor.HostStopped, Err: "refused"},
		},
	}
}

func TestExporter_Render(t *testing.T) {
	e := New()
	e.Render(view(
		monitor.Row{HostID: "local", ID: "aaa", Name: "web", CPU: 150, Memory: 42, HasMetrics: true},
		monitor.Row{HostID: "local", ID: "bbb", Name: "db"},
	))
	reg := e.Registry()

	cpu, ok := gauge(t, reg, "dtui_container_cpu_percent", map[string]string{"host": "local", "container": "aaa", "name": "web"})
	require.True(t, ok)
	assert.InDelta(t, 150.0, cpu, 1e-9)

	mem, ok := gauge(t, reg, "dtui_container_memory_percent", map[string]string{"container": "aaa"})
	require.True(t, ok)
	assert.InDelta(t, 42.0, mem, 1e-9)

	_, ok = gauge(t, reg, "dtui_container_cpu_percent", map[string]string{"container": "bbb"})
	assert.False(t, ok, "containers without a sample are not exported")

	up, _ := gauge(t, reg, "dtui_host_up", map[string]string{"host": "local"})
	assert.Equal(t, 1.0, up)
	down, ok := gauge(t, reg, "dtui_host_up", map[string]string{"host": "deploy@web1"})
	require.True(t, ok)
	assert.Equal(t, 0.0, down)

	ticks, _ := gauge(t, reg, "dtui_render_ticks_total", nil)
	assert.Equal(t, 1.0, ticks)
}

func TestExporter_RemovesVanishedContainers(t *testing.T) {
	e := New()
	e.Render(view(monitor.Row{HostID: "local", ID: "aaa", Name: "web", CPU: 1, HasMetrics: true}))
	e.Render(view())

	_, ok := gauge(t, e.Registry(), "dtui_container_cpu_percent", map[string]string{"container": "aaa"})
	assert.False(t, ok)
	_, ok = gauge(t, e.Registry(), "dtui_container_memory_percent", map[string]string{"container": "aaa"})
	assert.False(t, ok)

	ticks, _ := gauge(t, e.Registry(), "dtui_render_ticks_total", nil)
	assert.Equal(t, 2.0, ticks)
}

func TestExporter_Rename(t *testing.T) {
	e := New()
	e.Render(view(monitor.Row{HostID: "local", ID: "aaa", Name: "old", CPU: 1, HasMetrics: true}))
	e.Render(view(monitor.Row{HostID: "local", ID: "aaa", Name: "new", CPU: 2, HasMetrics: true}))

	_, ok := gauge(t, e.Registry(), "dtui_container_cpu_percent", map[string]string{"name": "old"})
	assert.False(t, ok)
	v, ok := gauge(t, e.Registry(), "dtui_container_cpu_percent", map[string]string{"name": "new"})
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
}

func TestExporter_Handler(t *testing.T) {
	e := New()
	e.Render(view(monitor.Row{HostID: "local", ID: "aaa", Name: "web", CPU: 12.5, Memory: 3, HasMetrics: true}))

	ts := httptest.NewServer(e.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `dtui_container_cpu_percent{container="aaa",host="local",name="web"} 12.5`)
	assert.Contains(t, string(body), "dtui_render_ticks_total 1")
}

func TestExporter_Serve(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Serve(ctx, addr, nil) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestExporter_ServeBadAddress(t *testing.T) {
	err := New().Serve(context.Background(), "256.0.0.1:bogus", nil)
	assert.Error(t, err)
}
