package messaging

import (
	"context"
	"sync"

	"werewolf/internal/shared/events"
)

const defaultLogCapacity = 256

// GameLog keeps a bounded, in-order ring of recent lifecycle events for the
// dashboard. Oldest entries fall off once capacity is reached.
type GameLog struct {
	mu       sync.RWMutex
	entries  []events.Envelope
	capacity int
}

func NewGameLog(capacity int) *GameLog {
	if capacity <= 0 {
		capacity = defaultLogCapacity
	}
	return &GameLog{capacity: capacity}
}

// Attach subscribes the log to the given bus topics for the lifetime of ctx.
func (l *GameLog) Attach(ctx context.Context, bus *Bus, topics ...string) {
	for _, topic := range topics {
		bus.Subscribe(ctx, topic, func(_ context.Context, event events.Envelope) error {
			l.Append(event)
			return nil
		})
	}
}

// Append records one event directly. Attach feeds it from a bus; tests and
// backfills can call it themselves.
func (l *GameLog) Append(event events.Envelope) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, event)
	if overflow := len(l.entries) - l.capacity; overflow > 0 {
		l.entries = append([]events.Envelope(nil), l.entries[overflow:]...)
	}
}

// Recent returns up to limit newest-first entries, optionally filtered by
// session id.
func (l *GameLog) Recent(sessionID string, limit int) []events.Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]events.Envelope, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		entry := l.entries[i]
		if sessionID != "" && entry.SessionID != sessionID {
			continue
		}
		out = append(out, entry)
	}
	return out
}
