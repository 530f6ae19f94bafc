package monitor

import (
	"sort"
	"time"
)

// Row is one container line of a View.
type Row struct {
	HostID     string
	ID         string
	Name       string
	Status     string
	Created    time.Time
	CPU        float64
	Memory     float64
	HasMetrics bool
	Selected   bool
}

// Key returns the row's container key.
func (r Row) Key() ContainerKey {
	return ContainerKey{HostID: r.HostID, ID: r.ID}
}

// HostSummary is the per-host part of a View.
type HostSummary struct {
	ID         string
	Address    string
	Dashboard  string
	State      HostState
	Err        string
	Containers int
}

// View is an immutable, ordered snapshot handed to displays.
type View struct {
	Rows     []Row
	Hosts    []HostSummary
	Selected int
	Width    int
	Height   int
	// MultiHost is true when rows come from more than one host.
	MultiHost bool
}

// SelectedRow returns the highlighted row, if any.
func (v View) SelectedRow() (Row, bool) {
	if v.Selected < 0 || v.Selected >= len(v.Rows) {
		return Row{}, false
	}
	return v.Rows[v.Selected], true
}

// Host returns the summary for id.
func (v View) Host(id string) (HostSummary, bool) {
	for _, h := range v.Hosts {
		if h.ID == id {
			return h, true
		}
	}
	return HostSummary{}, false
}

// BuildView derives the sorted view from s: rows ordered by host, then name,
// then container id. It does not modify s.
func BuildView(s *AppState) View {
	rows := make([]Row, 0, len(s.containers))
	perHost := make(map[string]int)

	for _, c := range s.containers {
		r := Row{
			HostID:  c.HostID,
			ID:      c.ID,
			Name:    c.Name,
			Status:  c.Status,
			Created: c.Created,
		}
		if c.Metrics != nil {
			r.CPU = c.Metrics.CPU
			r.Memory = c.Metrics.Memory
			r.HasMetrics = true
		}
		rows = append(rows, r)
		perHost[c.HostID]++
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.HostID != b.HostID {
			return a.HostID < b.HostID
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	if s.selected < len(rows) {
		rows[s.selected].Selected = true
	}

	hosts := make([]HostSummary, 0, len(s.hostOrder))
	for _, id := range s.hostOrder {
		rec := s.hosts[id]
		hosts = append(hosts, HostSummary{
			ID:         id,
			Address:    rec.Spec.Address,
			Dashboard:  rec.Spec.Dashboard,
			State:      rec.State,
			Err:        rec.Err,
			Containers: perHost[id],
		})
	}

	return View{
		Rows:      rows,
		Hosts:     hosts,
		Selected:  s.selected,
		Width:     s.width,
		Height:    s.height,
		MultiHost: len(perHost) > 1,
	}
}
