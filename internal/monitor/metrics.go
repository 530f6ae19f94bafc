package monitor

import "github.com/rileyhilliard/dtui/internal/docker"

// CPUPercent computes container CPU usage between two cumulative samples, as
// a percentage of one CPU (so 4 busy CPUs read 400). Without a previous
// sample, or when a counter went backwards, it returns 0.
func CPUPercent(prev *docker.StatsSample, cur docker.StatsSample) float64 {
	if prev == nil || cur.CPUTotal < prev.CPUTotal || cur.SystemCPU <= prev.SystemCPU {
		return 0
	}

	cpus := float64(cur.OnlineCPUs)
	if cpus == 0 {
		cpus = 1
	}

	cpuDelta := float64(cur.CPUTotal - prev.CPUTotal)
	systemDelta := float64(cur.SystemCPU - prev.SystemCPU)

	pct := cpuDelta / systemDelta * cpus * 100
	if ceiling := cpus * 100; pct > ceiling {
		return ceiling
	}
	return pct
}

// MemoryPercent returns usage as a share of the limit, clamped to 100. An
// unknown (zero) limit yields 0.
func MemoryPercent(cur docker.StatsSample) float64 {
	if cur.MemLimit == 0 {
		return 0
	}
	pct := float64(cur.MemUsage) / float64(cur.MemLimit) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Calculate derives Metrics from the previous and current samples.
func Calculate(prev *docker.StatsSample, cur docker.StatsSample) Metrics {
	return Metrics{
		CPU:    CPUPercent(prev, cur),
		Memory: MemoryPercent(cur),
	}
}

// smoother applies an exponential moving average to successive Metrics.
// An alpha outside (0, 1) passes values through unchanged.
type smoother struct {
	alpha  float64
	last   Metrics
	primed bool
}

func (s *smoother) apply(m Metrics) Metrics {
	if s.alpha <= 0 || s.alpha >= 1 {
		return m
	}
	if !s.primed {
		s.last, s.primed = m, true
		return m
	}
	s.last = Metrics{
		CPU:    s.alpha*m.CPU + (1-s.alpha)*s.last.CPU,
		Memory: s.alpha*m.Memory + (1-s.alpha)*s.last.Memory,
	}
	return s.last
}
