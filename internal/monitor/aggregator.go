package monitor

import (
	"context"
	"time"

	"github.com/rileyhilliard/dtui/internal/logger"
)

const (
	// DefaultRefreshInterval is the render tick.
	DefaultRefreshInterval = 500 * time.Millisecond
	// DefaultGracePeriod bounds the post-quit drain of in-flight events.
	DefaultGracePeriod = time.Second
	// EventBuffer is the capacity of the shared event channel.
	EventBuffer = 4096
)

// Aggregator is the single consumer of the event channel and the sole owner
// of AppState.
type Aggregator struct {
	events   <-chan Event
	displays []Display
	state    *AppState
	log      logger.Logger

	tick  time.Duration
	grace time.Duration

	// stopProducers cancels every producer; producersDone closes once they
	// have all returned.
	stopProducers context.CancelFunc
	producersDone <-chan struct{}
}

// Run consumes events and renders on every tick until a Quit event arrives
// or ctx is cancelled. Either way it stops the producers, drains what they
// still send, then closes the displays.
func (a *Aggregator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Debug("context cancelled, shutting down")
			a.finish()
			return nil

		case ev := <-a.events:
			a.state.Apply(ev)
			if a.state.Quitting() {
				a.log.Debug("quit requested, shutting down")
				a.finish()
				return nil
			}

		case <-ticker.C:
			a.render()
		}
	}
}

// finish cancels producers, applies events still in flight until they have
// all exited or the grace period runs out, then closes the displays.
func (a *Aggregator) finish() {
	a.stopProducers()

	grace := time.NewTimer(a.grace)
	defer grace.Stop()

	drained := 0
drain:
	for {
		select {
		case ev := <-a.events:
			a.state.Apply(ev)
			drained++
		case <-a.producersDone:
			for {
				select {
				case ev := <-a.events:
					a.state.Apply(ev)
					drained++
				default:
					break drain
				}
			}
		case <-grace.C:
			a.log.Warn("producers still running after %s, exiting anyway", a.grace)
			break drain
		}
	}
	a.log.Debug("drained %d events", drained)

	a.render()
	for _, d := range a.displays {
		if c, ok := d.(Closer); ok {
			c.Close()
		}
	}
}

func (a *Aggregator) render() {
	v := BuildView(a.state)
	for _, d := range a.displays {
		d.Render(v)
	}
}

// State exposes the aggregator's state. Only safe once Run has returned.
func (a *Aggregator) State() *AppState {
	return a.state
}
