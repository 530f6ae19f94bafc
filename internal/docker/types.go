package docker

import (
	"strings"
	"time"

	"github.com/docker/docker/pkg/stringid"
)

// ContainerInfo describes one running container as reported by its engine.
type ContainerInfo struct {
	ID      string // 12-character short id
	Name    string // without the leading "/"
	Status  string // engine state, e.g. "running"
	Created time.Time
}

// StatsSample is one raw, cumulative resource-usage reading.
type StatsSample struct {
	CPUTotal   uint64 // container CPU time, ns
	SystemCPU  uint64 // host CPU time, ns
	OnlineCPUs uint32
	MemUsage   uint64 // bytes
	MemLimit   uint64 // bytes
	Read       time.Time
}

// Action is a container lifecycle transition reported by the engine.
type Action string

const (
	ActionStart Action = "start"
	ActionDie   Action = "die"
	ActionStop  Action = "stop"
)

// LifecycleEvent is a start/die/stop notification for one container.
type LifecycleEvent struct {
	Action Action
	ID     string // short id
	Name   string // may be empty
}

// StatsStream yields successive samples for one container. Next returns
// io.EOF once the engine closes the stream.
type StatsStream interface {
	Next() (StatsSample, error)
	Close() error
}

// ShortID normalizes a container id to its 12-character form.
func ShortID(id string) string {
	return stringid.TruncateID(id)
}

// ContainerName picks the display name from an engine name list.
func ContainerName(names ...string) string {
	for _, n := range names {
		if n = strings.TrimPrefix(n, "/"); n != "" {
			return n
		}
	}
	return ""
}
