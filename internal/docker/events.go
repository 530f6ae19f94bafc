package docker

import (
	"context"

	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
)

// Lifecycle subscribes to container start, die and stop events. The event
// channel closes when the subscription ends; a terminal error, if any, is
// delivered on the error channel first.
func (c *Client) Lifecycle(ctx context.Context) (<-chan LifecycleEvent, <-chan error) {
	msgs, errs := c.api.Events(ctx, events.ListOptions{
		Filters: filters.NewArgs(
			filters.Arg("type", string(events.ContainerEventType)),
			filters.Arg("event", string(events.ActionStart)),
			filters.Arg("event", string(events.ActionDie)),
			filters.Arg("event", string(events.ActionStop)),
		),
	})

	out := make(chan LifecycleEvent)
	outErr := make(chan error, 1)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if ok && err != nil {
					outErr <- err
				}
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				ev, keep := fromMessage(m)
				if !keep {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, outErr
}

func fromMessage(m events.Message) (LifecycleEvent, bool) {
	if m.Type != "" && m.Type != events.ContainerEventType {
		return LifecycleEvent{}, false
	}
	var action Action
	switch m.Action {
	case events.ActionStart:
		action = ActionStart
	case events.ActionDie:
		action = ActionDie
	case events.ActionStop:
		action = ActionStop
	default:
		return LifecycleEvent{}, false
	}
	if m.Actor.ID == "" {
		return LifecycleEvent{}, false
	}
	return LifecycleEvent{
		Action: action,
		ID:     ShortID(m.Actor.ID),
		Name:   ContainerName(m.Actor.Attributes["name"]),
	}, true
}
