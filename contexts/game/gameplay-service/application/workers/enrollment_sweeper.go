package workers

import (
	"context"
	"log/slog"
	"time"

	"werewolf/contexts/game/gameplay-service/application"
	"werewolf/contexts/game/gameplay-service/ports"
)

// Closer is the slice of the gameplay use case the sweeper needs.
type Closer interface {
	CloseEnrollment(ctx context.Context, enrollmentID string) error
}

// EnrollmentSweeper closes sign-up windows whose deadline has passed. Each
// due window is closed in its own goroutine; the store removal inside
// CloseEnrollment keeps the close at-most-once when an explicit early close
// races the sweep.
type EnrollmentSweeper struct {
	Enrollments ports.EnrollmentStore
	Closer      Closer
	Clock       ports.Clock
	Interval    time.Duration
	Logger      *slog.Logger
}

// Run ticks until the context is canceled.
func (s EnrollmentSweeper) Run(ctx context.Context) error {
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

// RunOnce performs a single sweep.
func (s EnrollmentSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	due, err := s.Enrollments.SnapshotExpired(ctx, now)
	if err != nil {
		logger.Error("enrollment snapshot failed",
			"event", "enrollment_sweep_snapshot_failed",
			"module", "game/gameplay-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	for _, enrollmentID := range due {
		enrollmentID := enrollmentID
		go func() {
			if err := s.Closer.CloseEnrollment(ctx, enrollmentID); err != nil {
				logger.Warn("sweep close skipped",
					"event", "enrollment_sweep_close_skipped",
					"module", "game/gameplay-service",
					"layer", "worker",
					"enrollment_id", enrollmentID,
					"error", err.Error(),
				)
			}
		}()
	}
	return nil
}
