package storage

import (
	"context"
	"time"
)

// Sweeper runs the stale-artifact sweep on a fixed interval, decoupled from
// request handling so cleanup stays bounded and testable.
type Sweeper struct {
	store    *Store
	interval time.Duration
	maxAge   time.Duration
}

// NewSweeper configures a periodic sweep of store.
func NewSweeper(store *Store, interval, maxAge time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval, maxAge: maxAge}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.store.SweepOlderThan(s.maxAge)
		}
	}
}
