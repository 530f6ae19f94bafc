package dashboard

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/dtui/internal/monitor"
)

// Program is the part of *tea.Program a Display drives.
type Program interface {
	Send(msg tea.Msg)
	Quit()
}

// Display adapts a Bubble Tea program to monitor.Display. Render never
// blocks: it parks the view in a one-slot mailbox, replacing any view the
// program has not picked up yet, and a forwarder goroutine feeds the program.
type Display struct {
	program Program
	mailbox chan monitor.View
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

var (
	_ monitor.Display = (*Display)(nil)
	_ monitor.Closer  = (*Display)(nil)
)

// NewDisplay starts forwarding views to p.
func NewDisplay(p Program) *Display {
	d := &Display{
		program: p,
		mailbox: make(chan monitor.View, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.forward()
	return d
}

// Render implements monitor.Display. Only the aggregator calls it, so the
// drain-and-replace below has a single writer.
func (d *Display) Render(v monitor.View) {
	select {
	case d.mailbox <- v:
		return
	default:
	}
	select {
	case <-d.mailbox:
	default:
	}
	select {
	case d.mailbox <- v:
	default:
	}
}

// Close implements monitor.Closer: the program is asked to quit. It is safe
// to call more than once.
func (d *Display) Close() {
	d.once.Do(func() { close(d.done) })
}

// Stopped closes once the forwarder has exited.
func (d *Display) Stopped() <-chan struct{} {
	return d.stopped
}

func (d *Display) forward() {
	defer close(d.stopped)
	for {
		select {
		case <-d.done:
			d.program.Quit()
			return
		case v := <-d.mailbox:
			d.program.Send(viewMsg{view: v})
		}
	}
}
