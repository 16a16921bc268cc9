// Package worker hosts the background expiry sweeper. The sweep is an
// optimization, not a correctness requirement: every read path already
// recomputes pass state from time, so the sweeper only keeps the
// persisted state cache from drifting for consumers that query the
// table directly.
package worker

import (
	"context"
	"log"
	"time"
)

// PassExpirer is the slice of the pass service the sweeper needs.
type PassExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically refreshes the pass state cache.
type Sweeper struct {
	passes PassExpirer
	every  time.Duration
}

// NewSweeper builds a sweeper running at the given interval. Intervals
// below one second are clamped to avoid hammering the database.
func NewSweeper(passes PassExpirer, every time.Duration) *Sweeper {
	if every < time.Second {
		every = time.Second
	}
	return &Sweeper{passes: passes, every: every}
}

// Run sweeps until the context is cancelled. Each tick is independent
// and errors are logged rather than terminating the loop; the sweep is
// idempotent so a failed tick is simply retried by the next one.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, now.UTC())
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	tickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	n, err := s.passes.ExpireDue(tickCtx, now)
	if err != nil {
		log.Printf("pass sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("pass sweep expired %d passes", n)
	}
}
