package monitor

// Event is a message delivered to the aggregator. The set of kinds is closed:
// only types in this package implement it.
type Event interface {
	isEvent()
}

// InitialList replaces every container recorded for HostID.
type InitialList struct {
	HostID     string
	Containers []Container
}

// Created inserts or overwrites one container.
type Created struct {
	Container Container
}

// Destroyed removes one container.
type Destroyed struct {
	Key ContainerKey
}

// StatUpdate carries fresh metrics for one container.
type StatUpdate struct {
	Key     ContainerKey
	Metrics Metrics
}

// HostStatus reports a HostMonitor state transition.
type HostStatus struct {
	HostID string
	State  HostState
	Err    string
}

// Quit asks the engine to shut down.
type Quit struct{}

// Resize records new terminal dimensions.
type Resize struct {
	Width  int
	Height int
}

// SelectPrevious moves the selection up one row.
type SelectPrevious struct{}

// SelectNext moves the selection down one row.
type SelectNext struct{}

func (InitialList) isEvent()    {}
func (Created) isEvent()        {}
func (Destroyed) isEvent()      {}
func (StatUpdate) isEvent()     {}
func (HostStatus) isEvent()     {}
func (Quit) isEvent()           {}
func (Resize) isEvent()         {}
func (SelectPrevious) isEvent() {}
func (SelectNext) isEvent()     {}
