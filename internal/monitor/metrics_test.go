package monitor

import (
	"testing"

	"github.com/rileyhilliard/dtui/internal/docker"
	"github.com/stretchr/testify/assert"
)

func TestCPUPercent(t *testing.T) {
	tests := []struct {
		name string
		prev *docker.StatsSample
		cur  docker.StatsSample
		want float64
	}{
		{
			name: "two cpus fully busy",
			prev: &docker.StatsSample{CPUTotal: 100, SystemCPU: 1000, OnlineCPUs: 2},
			cur:  docker.StatsSample{CPUTotal: 150, SystemCPU: 1100, OnlineCPUs: 2},
			want: 100,
		},
		{
			name: "four cpus",
			prev: &docker.StatsSample{CPUTotal: 500_000_000, SystemCPU: 1_000_000_000},
			cur:  docker.StatsSample{CPUTotal: 1_000_000_000, SystemCPU: 2_000_000_000, OnlineCPUs: 4},
			want: 200,
		},
		{
			name: "no previous sample",
			cur:  docker.StatsSample{CPUTotal: 150, SystemCPU: 1100, OnlineCPUs: 2},
			want: 0,
		},
		{
			name: "container counter reset",
			prev: &docker.StatsSample{CPUTotal: 500, SystemCPU: 1000, OnlineCPUs: 2},
			cur:  docker.StatsSample{CPUTotal: 10, SystemCPU: 1100, OnlineCPUs: 2},
			want: 0,
		},
		{
			name: "system counter did not advance",
			prev: &docker.StatsSample{CPUTotal: 100, SystemCPU: 1000, OnlineCPUs: 2},
			cur:  docker.StatsSample{CPUTotal: 150, SystemCPU: 1000, OnlineCPUs: 2},
			want: 0,
		},
		{
			name: "system counter reset",
			prev: &docker.StatsSample{CPUTotal: 100, SystemCPU: 1000, OnlineCPUs: 2},
			cur:  docker.StatsSample{CPUTotal: 150, SystemCPU: 10, OnlineCPUs: 2},
			want: 0,
		},
		{
			name: "idle container",
			prev: &docker.StatsSample{CPUTotal: 100, SystemCPU: 1000, OnlineCPUs: 2},
			cur:  docker.StatsSample{CPUTotal: 100, SystemCPU: 1100, OnlineCPUs: 2},
			want: 0,
		},
		{
			name: "zero online cpus treated as one",
			prev: &docker.StatsSample{CPUTotal: 0, SystemCPU: 0},
			cur:  docker.StatsSample{CPUTotal: 25, SystemCPU: 100},
			want: 25,
		},
		{
			name: "clamped to cpu count",
			prev: &docker.StatsSample{CPUTotal: 0, SystemCPU: 0, OnlineCPUs: 2},
			cur:  docker.StatsSample{CPUTotal: 500, SystemCPU: 100, OnlineCPUs: 2},
			want: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CPUPercent(tt.prev, tt.cur), 1e-9)
		})
	}
}

func TestCPUPercent_MonotonicInContainerDelta(t *testing.T) {
	prev := &docker.StatsSample{CPUTotal: 1000, SystemCPU: 10_000, OnlineCPUs: 4}
	last := -1.0
	for delta := uint64(0); delta <= 10_000; delta += 250 {
		got := CPUPercent(prev, docker.StatsSample{CPUTotal: 1000 + delta, SystemCPU: 20_000, OnlineCPUs: 4})
		assert.GreaterOrEqual(t, got, last, "delta %d", delta)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 400.0)
		last = got
	}
}

func TestMemoryPercent(t *testing.T) {
	tests := []struct {
		name         string
		usage, limit uint64
		want         float64
	}{
		{"half", 512, 1024, 50},
		{"full", 1024, 1024, 100},
		{"low", 50, 1000, 5},
		{"over limit clamps", 2048, 1024, 100},
		{"unknown limit", 512, 0, 0},
		{"no usage", 0, 1024, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MemoryPercent(docker.StatsSample{MemUsage: tt.usage, MemLimit: tt.limit})
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestCalculate(t *testing.T) {
	first := sample(100, 1000, 2)
	m := Calculate(nil, first)
	assert.Zero(t, m.CPU, "no previous sample")
	assert.InDelta(t, 25.0, m.Memory, 1e-9, "memory does not need a previous sample")

	m = Calculate(&first, sample(150, 1100, 2))
	assert.InDelta(t, 100.0, m.CPU, 1e-9)
	assert.InDelta(t, 25.0, m.Memory, 1e-9)
}

func TestSmoother(t *testing.T) {
	t.Run("disabled passes through", func(t *testing.T) {
		for _, alpha := range []float64{0, 1, -0.5, 2} {
			s := smoother{alpha: alpha}
			assert.Equal(t, Metrics{CPU: 10, Memory: 20}, s.apply(Metrics{CPU: 10, Memory: 20}))
			assert.Equal(t, Metrics{CPU: 90, Memory: 40}, s.apply(Metrics{CPU: 90, Memory: 40}))
		}
	})

	t.Run("exponential moving average", func(t *testing.T) {
		s := smoother{alpha: 0.3}
		assert.Equal(t, Metrics{CPU: 100, Memory: 50}, s.apply(Metrics{CPU: 100, Memory: 50}))

		got := s.apply(Metrics{CPU: 0, Memory: 50})
		assert.InDelta(t, 70.0, got.CPU, 1e-9)
		assert.InDelta(t, 50.0, got.Memory, 1e-9)

		got = s.apply(Metrics{CPU: 0, Memory: 50})
		assert.InDelta(t, 49.0, got.CPU, 1e-9)
	})
}
