package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
)

// StreamStats opens a streaming stats request for one container. The stream
// ends when ctx is cancelled, the container stops, or Close is called.
func (c *Client) StreamStats(ctx context.Context, id string) (StatsStream, error) {
	resp, err := c.api.ContainerStats(ctx, id, true)
	if err != nil {
		return nil, fmt.Errorf("stats for %s on %s: %w", id, c.hostID, err)
	}
	return newStatsDecoder(resp.Body), nil
}

// statsDecoder reads the engine's newline-delimited JSON stats documents.
type statsDecoder struct {
	body io.ReadCloser
	dec  *json.Decoder
}

func newStatsDecoder(body io.ReadCloser) *statsDecoder {
	return &statsDecoder{body: body, dec: json.NewDecoder(body)}
}

func (s *statsDecoder) Next() (StatsSample, error) {
	var raw container.StatsResponse
	if err := s.dec.Decode(&raw); err != nil {
		return StatsSample{}, err
	}
	return fromStats(raw), nil
}

func (s *statsDecoder) Close() error {
	return s.body.Close()
}

func fromStats(r container.StatsResponse) StatsSample {
	cpus := r.CPUStats.OnlineCPUs
	if cpus == 0 {
		cpus = uint32(len(r.CPUStats.CPUUsage.PercpuUsage))
	}
	return StatsSample{
		CPUTotal:   r.CPUStats.CPUUsage.TotalUsage,
		SystemCPU:  r.CPUStats.SystemUsage,
		OnlineCPUs: cpus,
		MemUsage:   r.MemoryStats.Usage,
		MemLimit:   r.MemoryStats.Limit,
		Read:       r.Read,
	}
}
