// Package telemetry exports the monitor's view as Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rileyhilliard/dtui/internal/logger"
	"github.com/rileyhilliard/dtui/internal/monitor"
)

const namespace = "dtui"

// Exporter is a monitor.Display that mirrors every view into gauges on a
// private registry.
type Exporter struct {
	registry *prometheus.Registry

	cpu    *prometheus.GaugeVec
	memory *prometheus.GaugeVec
	hostUp *prometheus.GaugeVec
	ticks  prometheus.Counter

	// series seen on the previous render, so vanished containers can be
	// removed. Only touched from Render.
	series map[monitor.ContainerKey]prometheus.Labels
}

var _ monitor.Display = (*Exporter)(nil)

// New creates an Exporter with its own registry.
func New() *Exporter {
	containerLabels := []string{"host", "container", "name"}

	e := &Exporter{
		registry: prometheus.NewRegistry(),
		cpu: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "container_cpu_percent",
			Help:      "Container CPU usage in percent of one CPU.",
		}, containerLabels),
		memory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "container_memory_percent",
			Help:      "Container memory usage in percent of its limit.",
		}, containerLabels),
		hostUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_up",
			Help:      "1 when the host is being monitored, 0 otherwise.",
		}, []string{"host"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_ticks_total",
			Help:      "Number of views rendered.",
		}),
		series: make(map[monitor.ContainerKey]prometheus.Labels),
	}

	e.registry.MustRegister(e.cpu, e.memory, e.hostUp, e.ticks)
	return e
}

// Render implements monitor.Display.
func (e *Exporter) Render(v monitor.View) {
	e.ticks.Inc()

	for _, h := range v.Hosts {
		up := 0.0
		if h.State == monitor.HostActive {
			up = 1
		}
		e.hostUp.WithLabelValues(h.ID).Set(up)
	}

	current := make(map[monitor.ContainerKey]prometheus.Labels, len(v.Rows))
	for _, r := range v.Rows {
		if !r.HasMetrics {
			continue
		}
		labels := prometheus.Labels{"host": r.HostID, "container": r.ID, "name": r.Name}
		e.cpu.With(labels).Set(r.CPU)
		e.memory.With(labels).Set(r.Memory)
		current[r.Key()] = labels
	}

	for key, labels := range e.series {
		if next, ok := current[key]; ok && next["name"] == labels["name"] {
			continue
		}
		e.cpu.Delete(labels)
		e.memory.Delete(labels)
	}
	e.series = current
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (e *Exporter) Serve(ctx context.Context, addr string, log logger.Logger) error {
	if log == nil {
		log = logger.Noop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving metrics on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
