package monitor

import (
	"github.com/rileyhilliard/dtui/internal/host"
)

// HostRecord is the aggregator's knowledge about one host.
type HostRecord struct {
	Spec  host.Spec
	State HostState
	Err   string
}

// AppState is the authoritative snapshot of everything the engine knows.
// It is owned by the aggregator goroutine and is not safe for concurrent use.
type AppState struct {
	containers map[ContainerKey]Container
	hosts      map[string]*HostRecord
	hostOrder  []string

	selected int
	width    int
	height   int
	quit     bool
}

// NewAppState creates an empty state for the given hosts, all Connecting.
func NewAppState(specs []host.Spec) *AppState {
	s := &AppState{
		containers: make(map[ContainerKey]Container),
		hosts:      make(map[string]*HostRecord, len(specs)),
	}
	for _, spec := range specs {
		id := spec.ID()
		if _, ok := s.hosts[id]; ok {
			continue
		}
		s.hosts[id] = &HostRecord{Spec: spec, State: HostConnecting}
		s.hostOrder = append(s.hostOrder, id)
	}
	return s
}

// Apply folds one event into the state.
func (s *AppState) Apply(ev Event) {
	switch e := ev.(type) {
	case InitialList:
		for key := range s.containers {
			if key.HostID == e.HostID {
				delete(s.containers, key)
			}
		}
		for _, c := range e.Containers {
			c.HostID = e.HostID
			s.containers[c.Key()] = c
		}
		s.clampSelection()

	case Created:
		s.containers[e.Container.Key()] = e.Container

	case Destroyed:
		delete(s.containers, e.Key)
		s.clampSelection()

	case StatUpdate:
		c, ok := s.containers[e.Key]
		if !ok {
			return
		}
		m := e.Metrics
		c.Metrics = &m
		s.containers[e.Key] = c

	case HostStatus:
		rec, ok := s.hosts[e.HostID]
		if !ok {
			rec = &HostRecord{Spec: host.Spec{Address: e.HostID}}
			s.hosts[e.HostID] = rec
			s.hostOrder = append(s.hostOrder, e.HostID)
		}
		rec.State = e.State
		rec.Err = e.Err

	case Resize:
		s.width, s.height = e.Width, e.Height

	case SelectPrevious:
		if s.selected > 0 {
			s.selected--
		}

	case SelectNext:
		if s.selected < len(s.containers)-1 {
			s.selected++
		}

	case Quit:
		s.quit = true
	}
}

func (s *AppState) clampSelection() {
	switch n := len(s.containers); {
	case n == 0:
		s.selected = 0
	case s.selected > n-1:
		s.selected = n - 1
	}
}

// Len returns the number of tracked containers.
func (s *AppState) Len() int {
	return len(s.containers)
}

// Container looks up one container.
func (s *AppState) Container(key ContainerKey) (Container, bool) {
	c, ok := s.containers[key]
	return c, ok
}

// Host looks up one host record.
func (s *AppState) Host(id string) (HostRecord, bool) {
	rec, ok := s.hosts[id]
	if !ok {
		return HostRecord{}, false
	}
	return *rec, true
}

// Selected returns the selection index into the sorted view.
func (s *AppState) Selected() int {
	return s.selected
}

// Size returns the last reported terminal dimensions.
func (s *AppState) Size() (width, height int) {
	return s.width, s.height
}

// Quitting reports whether a Quit event has been applied.
func (s *AppState) Quitting() bool {
	return s.quit
}
