package monitor

import (
	"context"
	"time"
)

// send delivers ev unless ctx is done. It reports whether ev was delivered.
func send(ctx context.Context, out chan<- Event, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// sendWithin delivers ev, giving up after wait. It is used once ctx is gone
// and only the aggregator's drain is left to read.
func sendWithin(out chan<- Event, ev Event, wait time.Duration) bool {
	select {
	case out <- ev:
		return true
	default:
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case out <- ev:
		return true
	case <-t.C:
		return false
	}
}
