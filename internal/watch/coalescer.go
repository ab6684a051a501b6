package watch

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/doxyhook/internal/logfields"
)

// coalescer runs fn serially. Requests made while fn runs collapse into a
// single follow-up run.
type coalescer struct {
	fn  RebuildFunc
	req chan struct{}
}

func newCoalescer(fn RebuildFunc) *coalescer {
	return &coalescer{fn: fn, req: make(chan struct{}, 1)}
}

// request queues a run unless one is already queued. It never blocks.
func (c *coalescer) request() {
	select {
	case c.req <- struct{}{}:
	default:
	}
}

func (c *coalescer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.req:
			if ctx.Err() != nil {
				return
			}
			start := time.Now()
			slog.Info("Change detected; rebuilding documentation")
			if err := c.fn(ctx); err != nil {
				slog.Warn("Rebuild failed", logfields.Error(err))
				continue
			}
			slog.Info("Rebuild finished", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		}
	}
}
