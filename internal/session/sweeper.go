package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// JobScheduler is the part of the cron scheduler the sweeper needs.
type JobScheduler interface {
	AddJob(expr string, task func()) error
}

// Sweeper periodically drops sessions that have been idle for longer than a TTL.
type Sweeper struct {
	store Expirer
	ttl   time.Duration
	now   func() time.Time
}

// NewSweeper creates a sweeper for store. A non-positive ttl disables it.
func NewSweeper(store Expirer, ttl time.Duration) *Sweeper {
	return &Sweeper{store: store, ttl: ttl, now: time.Now}
}

// Schedule registers the sweep with the scheduler using a cron expression.
func (s *Sweeper) Schedule(sched JobScheduler, expr string) error {
	if s.ttl <= 0 {
		slog.Debug("Sweeper disabled, sessions never expire")
		return nil
	}
	if err := sched.AddJob(expr, func() { s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	slog.Info("Sweeper scheduled", "expr", expr, "idle_ttl", s.ttl)
	return nil
}

// Sweep removes idle sessions once and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) int {
	if s.ttl <= 0 {
		return 0
	}
	removed, err := s.store.ExpireIdle(ctx, s.now().Add(-s.ttl))
	if err != nil {
		slog.Error("Sweeper.Sweep failed", "error", err)
		return 0
	}
	if removed > 0 {
		slog.Info("Sweeper removed idle sessions", "count", removed)
	}
	return removed
}
