package monitor

import (
	"context"
	"sync"
)

// streamHandle controls one running streamer.
type streamHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *streamHandle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
	}
	return false
}

// registry tracks the streamers of one host. It is owned by the HostMonitor
// goroutine and is not safe for concurrent use.
type registry struct {
	entries map[ContainerKey]*streamHandle
	wg      sync.WaitGroup
}

func newRegistry() *registry {
	return &registry{entries: make(map[ContainerKey]*streamHandle)}
}

// live reports whether a streamer for key is registered and still running.
func (r *registry) live(key ContainerKey) bool {
	h, ok := r.entries[key]
	return ok && !h.exited()
}

// spawn starts run under a child of parent unless a live streamer already
// exists for key. An entry whose streamer has exited is replaced.
func (r *registry) spawn(parent context.Context, key ContainerKey, run func(ctx context.Context)) bool {
	if r.live(key) {
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	h := &streamHandle{cancel: cancel, done: make(chan struct{})}
	r.entries[key] = h

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(h.done)
		defer cancel()
		run(ctx)
	}()
	return true
}

// cancel stops and forgets the streamer for key. It reports whether key was
// registered.
func (r *registry) cancel(key ContainerKey) bool {
	h, ok := r.entries[key]
	if !ok {
		return false
	}
	h.cancel()
	delete(r.entries, key)
	return true
}

// keys returns every registered key.
func (r *registry) keys() []ContainerKey {
	out := make([]ContainerKey, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	return out
}

// cancelAll stops every streamer and waits for all of them to return.
func (r *registry) cancelAll() {
	for k := range r.entries {
		r.cancel(k)
	}
	r.wg.Wait()
}

func (r *registry) len() int {
	return len(r.entries)
}
