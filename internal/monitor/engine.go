package monitor

import (
	"context"
	"time"

	"github.com/rileyhilliard/dtui/internal/host"
	"github.com/rileyhilliard/dtui/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Options configures an Engine.
type Options struct {
	Hosts   []host.Spec
	Connect Connector

	Displays []Display

	RefreshInterval time.Duration
	ConnectTimeout  time.Duration
	GracePeriod     time.Duration
	// Smoothing is the EMA factor for CPU and memory; 0 disables it.
	Smoothing float64

	Logger logger.Logger
}

// Engine wires host monitors, streamers and the aggregator together around
// one event channel.
type Engine struct {
	opts   Options
	events chan Event
	agg    *Aggregator
	log    logger.Logger
}

// New creates an Engine. Hosts that share an id are monitored once.
func New(opts Options) *Engine {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if len(opts.Hosts) == 0 {
		opts.Hosts = []host.Spec{host.MustParse(host.LocalID)}
	}

	return &Engine{
		opts:   opts,
		events: make(chan Event, EventBuffer),
		log:    logger.WithPrefix(opts.Logger, "[engine]"),
	}
}

// AddDisplay registers a display. Call before Run.
func (e *Engine) AddDisplay(d Display) {
	e.opts.Displays = append(e.opts.Displays, d)
}

// Submit delivers an event from outside the engine, such as a keyboard
// intent. It blocks until the event is queued or ctx is done.
func (e *Engine) Submit(ctx context.Context, ev Event) bool {
	return send(ctx, e.events, ev)
}

// Run starts one HostMonitor per host and runs the aggregator on the calling
// goroutine. It returns after Quit, or after ctx is cancelled, once the
// displays have been closed.
func (e *Engine) Run(ctx context.Context) error {
	hostCtx, stopHosts := context.WithCancel(ctx)
	defer stopHosts()

	hostsDone := make(chan struct{})
	started := e.startHosts(hostCtx, hostsDone)
	e.log.Info("monitoring %d host(s)", started)

	e.agg = &Aggregator{
		events:        e.events,
		displays:      e.opts.Displays,
		state:         NewAppState(e.opts.Hosts),
		log:           e.log,
		tick:          e.opts.RefreshInterval,
		grace:         e.opts.GracePeriod,
		stopProducers: stopHosts,
		producersDone: hostsDone,
	}
	return e.agg.Run(ctx)
}

// State returns the final AppState. Only valid after Run has returned.
func (e *Engine) State() *AppState {
	if e.agg == nil {
		return nil
	}
	return e.agg.State()
}

func (e *Engine) startHosts(ctx context.Context, done chan<- struct{}) int {
	g, gctx := errgroup.WithContext(ctx)

	seen := make(map[string]bool)
	for _, spec := range e.opts.Hosts {
		if seen[spec.ID()] {
			e.log.Warn("skipping %s: host id %s is already monitored", spec.Address, spec.ID())
			continue
		}
		seen[spec.ID()] = true

		hm := NewHostMonitor(spec, e.opts.Connect, e.events,
			WithHostLogger(e.opts.Logger),
			WithConnectTimeout(e.opts.ConnectTimeout),
			WithSmoothing(e.opts.Smoothing))
		g.Go(func() error {
			return hm.Run(gctx)
		})
	}

	go func() {
		if err := g.Wait(); err != nil {
			e.log.Error("host group: %v", err)
		}
		close(done)
	}()
	return len(seen)
}
