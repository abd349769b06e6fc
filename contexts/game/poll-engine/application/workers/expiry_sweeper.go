package workers

import (
	"context"
	"log/slog"
	"time"

	"werewolf/contexts/game/poll-engine/application"
	"werewolf/contexts/game/poll-engine/ports"
)

// Finalizer is the slice of the poll use case the sweeper needs.
type Finalizer interface {
	Finalize(ctx context.Context, pollID string) error
}

// ExpirySweeper drives expiration: each tick it snapshots due polls and
// finalizes each one in its own goroutine, so a slow closing render or
// completion callback for one poll cannot delay another poll's expiration.
type ExpirySweeper struct {
	Polls     ports.PollStore
	Finalizer Finalizer
	Clock     ports.Clock
	Interval  time.Duration
	Logger    *slog.Logger
}

// Run ticks until the context is canceled. The reference cadence is one
// sweep per second.
func (s ExpirySweeper) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// RunOnce performs a single sweep. Finalize dispatches are concurrent and
// idempotent: the store removal inside Finalize guarantees at-most-once
// execution even when an explicit early finalize races the sweep.
func (s ExpirySweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	due, err := s.Polls.SnapshotExpired(ctx, now)
	if err != nil {
		logger.Error("expiry snapshot failed",
			"event", "poll_sweep_snapshot_failed",
			"module", "game/poll-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	for _, pollID := range due {
		pollID := pollID
		go func() {
			if err := s.Finalizer.Finalize(ctx, pollID); err != nil {
				logger.Warn("sweep finalize skipped",
					"event", "poll_sweep_finalize_skipped",
					"module", "game/poll-engine",
					"layer", "worker",
					"poll_id", pollID,
					"error", err.Error(),
				)
			}
		}()
	}
	return nil
}
