package ports

import (
	"context"
	"time"

	"werewolf/contexts/game/poll-engine/domain/entities"
	"werewolf/internal/shared/events"
)

// PollHandle serializes every mutation of one registered poll. Toggle and
// Close are mutually exclusive: once Close has run, Toggle reports the poll
// as closed instead of mutating the discarded tally.
type PollHandle interface {
	// Definition exposes the poll's immutable fields (options, limits,
	// eligibility predicate, completion callback). Votes must not be read
	// through it; use View.
	Definition() *entities.Poll
	Toggle(optionID string, voterID string) (entities.ToggleResult, error)
	View() entities.PollView
	// Close marks the poll closed and returns the final snapshot and winner
	// set. The second call reports false and changes nothing.
	Close() (entities.PollView, []entities.Option, bool)
}

// PollStore is the registry of active polls: the single source of truth for
// poll state. Register fails on duplicate ids; Remove is the exactly-once
// finalize gate.
type PollStore interface {
	Register(ctx context.Context, poll *entities.Poll) (PollHandle, error)
	Get(ctx context.Context, pollID string) (PollHandle, error)
	Remove(ctx context.Context, pollID string) (PollHandle, error)
	// SnapshotExpired returns ids of active polls with ExpireAt <= now
	// without removing them; removal happens during finalize.
	SnapshotExpired(ctx context.Context, now time.Time) ([]string, error)
	Views(ctx context.Context) ([]entities.PollView, error)
}

// Renderer owns the outward representation of a poll. Refresh fully
// re-derives the visible state from the snapshot, never patching
// incrementally, so concurrent refreshes converge on last-writer-wins.
type Renderer interface {
	// Publish posts the initial representation and returns the render
	// reference (on Discord, the message id) used as the poll id.
	Publish(ctx context.Context, view entities.PollView) (string, error)
	Refresh(ctx context.Context, view entities.PollView) error
	// Close replaces the representation with the read-only result, listing
	// voter identities per option unless the poll was anonymous.
	Close(ctx context.Context, view entities.PollView, winners []entities.Option) error
	// Announce is the default completion behavior used when no callback is
	// configured.
	Announce(ctx context.Context, view entities.PollView, winners []entities.Option) error
}

// ArchiveWriter persists finalized poll results. Optional: a nil writer
// means results live only in the rendered message.
type ArchiveWriter interface {
	SavePollResult(ctx context.Context, result PollResult) error
}

// PollResult is the archived record of one finalized poll.
type PollResult struct {
	PollID        string
	Topic         string
	ChannelID     string
	Winners       []entities.Option
	Counts        []entities.OptionCount
	AnonymousVote bool
	FinalizedAt   time.Time
}

// EventPublisher feeds lifecycle events to the in-process bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
