package monitor

import (
	"context"
	"errors"
	"io"

	"github.com/rileyhilliard/dtui/internal/docker"
	"github.com/rileyhilliard/dtui/internal/logger"
)

// streamer turns one container's raw stats stream into StatUpdate events.
type streamer struct {
	key       ContainerKey
	client    Client
	out       chan<- Event
	log       logger.Logger
	smoothing float64
}

// run streams until the container's stream ends, ctx is cancelled or a read
// fails. It never retries.
func (s *streamer) run(ctx context.Context) {
	stream, err := s.client.StreamStats(ctx, s.key.ID)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn("stats for %s unavailable: %v", s.key.ID, err)
		}
		return
	}

	// Next may block on the network; closing the stream unblocks it. The
	// stream is closed before run returns so the client can be closed after.
	stop := make(chan struct{})
	closed := make(chan struct{})
	defer func() {
		close(stop)
		<-closed
	}()
	go func() {
		defer close(closed)
		select {
		case <-ctx.Done():
		case <-stop:
		}
		stream.Close()
	}()

	var prev *docker.StatsSample
	smooth := smoother{alpha: s.smoothing}

	for {
		sample, err := stream.Next()
		if err != nil {
			switch {
			case ctx.Err() != nil:
			case errors.Is(err, io.EOF):
				s.log.Debug("stats stream for %s ended", s.key.ID)
			default:
				s.log.Warn("stats stream for %s failed: %v", s.key.ID, err)
			}
			return
		}

		m := Calculate(prev, sample)
		if prev != nil {
			m = smooth.apply(m)
		}
		prev = &sample

		if !send(ctx, s.out, StatUpdate{Key: s.key, Metrics: m}) {
			return
		}
	}
}
