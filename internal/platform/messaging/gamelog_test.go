package messaging

import (
	"context"
	"fmt"
	"testing"
	"time"

	"werewolf/internal/shared/events"
)

func TestGameLogEvictsOldestAtCapacity(t *testing.T) {
	log := NewGameLog(3)
	for i := 1; i <= 5; i++ {
		log.Append(events.Envelope{EventID: fmt.Sprintf("ev-%d", i)})
	}

	entries := log.Recent("", 10)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].EventID != "ev-5" || entries[2].EventID != "ev-3" {
		t.Fatalf("unexpected order: %v, %v", entries[0].EventID, entries[2].EventID)
	}
}

func TestGameLogFiltersBySessionNewestFirst(t *testing.T) {
	log := NewGameLog(0)
	log.Append(events.Envelope{EventID: "ev-1", SessionID: "s1"})
	log.Append(events.Envelope{EventID: "ev-2", SessionID: "s2"})
	log.Append(events.Envelope{EventID: "ev-3", SessionID: "s1"})

	entries := log.Recent("s1", 10)
	if len(entries) != 2 || entries[0].EventID != "ev-3" || entries[1].EventID != "ev-1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestBusDeliversToAttachedLog(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus(nil)
	log := NewGameLog(0)
	log.Attach(ctx, bus, "poll.events")

	if err := bus.Publish(ctx, "poll.events", events.Envelope{EventID: "ev-1"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	// Delivery runs on the subscriber goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(log.Recent("", 1)) == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("event never reached the log")
}
