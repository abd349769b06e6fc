package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"werewolf/contexts/game/poll-engine/domain/entities"
	domainerrors "werewolf/contexts/game/poll-engine/domain/errors"
)

func registerPoll(t *testing.T, store *Store, id string, expireAt time.Time) {
	t.Helper()
	poll := entities.NewPoll(id, "t", []entities.Option{{ID: "a", Label: "A"}})
	poll.MaxVotesPerUser = 1
	poll.ExpireAt = expireAt
	if _, err := store.Register(context.Background(), poll); err != nil {
		t.Fatalf("register %s failed: %v", id, err)
	}
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	store := NewStore()
	registerPoll(t, store, "p1", time.Now().Add(time.Minute))
	poll := entities.NewPoll("p1", "t", []entities.Option{{ID: "a", Label: "A"}})
	if _, err := store.Register(context.Background(), poll); !errors.Is(err, domainerrors.ErrDuplicatePollID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestRemoveIsExactlyOnceUnderConcurrency(t *testing.T) {
	store := NewStore()
	registerPoll(t, store, "p1", time.Now().Add(time.Minute))

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Remove(context.Background(), "p1"); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Fatalf("expected exactly one successful removal, got %d", won)
	}
	if _, err := store.Get(context.Background(), "p1"); !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected not found after removal, got %v", err)
	}
}

func TestSnapshotExpiredLeavesPollsRegistered(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()
	registerPoll(t, store, "due-1", now.Add(-time.Second))
	registerPoll(t, store, "due-2", now)
	registerPoll(t, store, "later", now.Add(time.Hour))

	due, err := store.SnapshotExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(due) != 2 || due[0] != "due-1" || due[1] != "due-2" {
		t.Fatalf("expected [due-1 due-2], got %v", due)
	}
	for _, id := range due {
		if _, err := store.Get(context.Background(), id); err != nil {
			t.Fatalf("snapshot must not remove %s: %v", id, err)
		}
	}
}

func TestToggleAfterCloseReportsPollClosed(t *testing.T) {
	store := NewStore()
	registerPoll(t, store, "p1", time.Now().Add(time.Minute))
	handle, err := store.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, _, ok := handle.Close(); !ok {
		t.Fatalf("first close must succeed")
	}
	if _, _, ok := handle.Close(); ok {
		t.Fatalf("second close must be a no-op")
	}
	if _, err := handle.Toggle("a", "v1"); !errors.Is(err, domainerrors.ErrPollClosed) {
		t.Fatalf("expected poll closed, got %v", err)
	}
}

func TestConcurrentTogglesStayWithinLimit(t *testing.T) {
	store := NewStore()
	poll := entities.NewPoll("p1", "t", []entities.Option{
		{ID: "a", Label: "A"},
		{ID: "b", Label: "B"},
		{ID: "c", Label: "C"},
	})
	poll.MaxVotesPerUser = 1
	poll.ExpireAt = time.Now().Add(time.Minute)
	handle, err := store.Register(context.Background(), poll)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		option := []string{"a", "b", "c"}[i%3]
		wg.Add(1)
		go func(optionID string) {
			defer wg.Done()
			_, _ = handle.Toggle(optionID, "v1")
		}(option)
	}
	wg.Wait()

	held := 0
	for _, count := range handle.View().Options {
		held += count.Count
	}
	if held > 1 {
		t.Fatalf("voter holds %d options, limit is 1", held)
	}
}
