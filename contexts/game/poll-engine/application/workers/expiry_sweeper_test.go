package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"werewolf/contexts/game/poll-engine/adapters/memory"
	"werewolf/contexts/game/poll-engine/domain/entities"
)

type recordingFinalizer struct {
	mu    sync.Mutex
	store *memory.Store
	calls []string
	done  chan string
}

func (f *recordingFinalizer) Finalize(ctx context.Context, pollID string) error {
	if _, err := f.store.Remove(ctx, pollID); err != nil {
		return err
	}
	f.mu.Lock()
	f.calls = append(f.calls, pollID)
	f.mu.Unlock()
	f.done <- pollID
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func registerPoll(t *testing.T, store *memory.Store, id string, expireAt time.Time) {
	t.Helper()
	poll := entities.NewPoll(id, "t", []entities.Option{{ID: "a", Label: "A"}})
	poll.MaxVotesPerUser = 1
	poll.ExpireAt = expireAt
	if _, err := store.Register(context.Background(), poll); err != nil {
		t.Fatalf("register %s failed: %v", id, err)
	}
}

func TestRunOnceFinalizesOnlyDuePolls(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	registerPoll(t, store, "due", now.Add(-time.Second))
	registerPoll(t, store, "zero-window", now)
	registerPoll(t, store, "later", now.Add(time.Minute))

	finalizer := &recordingFinalizer{store: store, done: make(chan string, 4)}
	sweeper := ExpirySweeper{
		Polls:     store,
		Finalizer: finalizer,
		Clock:     fixedClock{now: now},
	}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	finalized := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-finalizer.done:
			finalized[id] = true
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for finalize dispatches, got %v", finalized)
		}
	}
	if !finalized["due"] || !finalized["zero-window"] {
		t.Fatalf("expected due and zero-window finalized, got %v", finalized)
	}
	if _, err := store.Get(context.Background(), "later"); err != nil {
		t.Fatalf("unexpired poll must stay registered: %v", err)
	}
}

func TestRepeatedSweepsDoNotRefinalize(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	registerPoll(t, store, "due", now.Add(-time.Second))

	finalizer := &recordingFinalizer{store: store, done: make(chan string, 4)}
	sweeper := ExpirySweeper{
		Polls:     store,
		Finalizer: finalizer,
		Clock:     fixedClock{now: now},
	}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	select {
	case <-finalizer.done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for finalize")
	}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}

	finalizer.mu.Lock()
	defer finalizer.mu.Unlock()
	if len(finalizer.calls) != 1 {
		t.Fatalf("poll finalized %d times, want 1", len(finalizer.calls))
	}
}
