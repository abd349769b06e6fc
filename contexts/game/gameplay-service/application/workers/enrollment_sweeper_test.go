package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"werewolf/contexts/game/gameplay-service/adapters/memory"
	"werewolf/contexts/game/gameplay-service/domain/entities"
)

type recordingCloser struct {
	store  *memory.Store
	mu     sync.Mutex
	closed []string
	done   chan string
}

func (r *recordingCloser) CloseEnrollment(ctx context.Context, enrollmentID string) error {
	handle, err := r.store.Remove(ctx, enrollmentID)
	if err != nil {
		return err
	}
	handle.Close()
	r.mu.Lock()
	r.closed = append(r.closed, enrollmentID)
	r.mu.Unlock()
	r.done <- enrollmentID
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func TestRunOnceClosesOnlyDueWindows(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	register := func(id string, deadline time.Time) {
		t.Helper()
		if _, err := store.Register(context.Background(), entities.NewEnrollment(id, "s1", "c1", deadline)); err != nil {
			t.Fatalf("Register %s: %v", id, err)
		}
	}
	register("due", now.Add(-time.Second))
	register("boundary", now)
	register("future", now.Add(time.Minute))

	closer := &recordingCloser{store: store, done: make(chan string, 4)}
	sweeper := EnrollmentSweeper{Enrollments: store, Closer: closer, Clock: fixedClock{now: now}}

	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	closed := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-closer.done:
			closed[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for closes, got %v", closed)
		}
	}
	if !closed["due"] || !closed["boundary"] {
		t.Fatalf("closed = %v, want due and boundary", closed)
	}

	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	select {
	case id := <-closer.done:
		t.Fatalf("unexpected close of %s", id)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := store.Get(context.Background(), "future"); err != nil {
		t.Fatalf("future window must stay open: %v", err)
	}
}
