package ports

import (
	"context"
	"time"

	"werewolf/contexts/game/gameplay-service/domain/entities"
	"werewolf/internal/shared/events"
)

// Messenger posts and edits plain channel messages.
type Messenger interface {
	Send(ctx context.Context, channelID, content string) (string, error)
	Edit(ctx context.Context, channelID, messageID, content string) error
}

// RosterProvider resolves the alive seats of a session, in seating order.
type RosterProvider interface {
	AlivePlayers(ctx context.Context, sessionID string) ([]entities.Seat, error)
}

type PollOption struct {
	ID    string
	Label string
}

// PollSpec describes a poll the gameplay flows want launched. The voting
// engine behind the launcher owns rendering, expiry and tallying.
type PollSpec struct {
	SessionID       string
	ChannelID       string
	Topic           string
	Options         []PollOption
	Duration        time.Duration
	MaxVotesPerUser int
	ShowLiveCounts  bool
	AnonymousVote   bool
	Eligible        func(ctx context.Context, userID string) bool
	OnComplete      func(ctx context.Context, winners []PollOption)
}

type PollLauncher interface {
	LaunchPoll(ctx context.Context, spec PollSpec) (string, error)
}

// EnrollmentRenderer owns the sign-up message. Publish returns the render
// reference that becomes the window's id, so component interactions route
// back by message.
type EnrollmentRenderer interface {
	PublishEnrollment(ctx context.Context, view entities.EnrollmentView) (string, error)
	CloseEnrollment(ctx context.Context, view entities.EnrollmentView) error
}

// EnrollmentHandle serializes access to one live sign-up window.
type EnrollmentHandle interface {
	Definition() *entities.Enrollment
	Toggle(seat entities.Seat) (bool, error)
	View() entities.EnrollmentView
	// Close marks the window closed and reports whether this call was the
	// one that closed it.
	Close() (entities.EnrollmentView, bool)
}

type EnrollmentStore interface {
	Register(ctx context.Context, enrollment *entities.Enrollment) (EnrollmentHandle, error)
	Get(ctx context.Context, enrollmentID string) (EnrollmentHandle, error)
	Remove(ctx context.Context, enrollmentID string) (EnrollmentHandle, error)
	SnapshotExpired(ctx context.Context, now time.Time) ([]string, error)
}

// CandidateBoard remembers the outcome of the latest closed sign-up window
// per session so the sheriff election can pick it up. Withdraw supports the
// late drop-out a closed window still allows.
type CandidateBoard interface {
	SetCandidates(ctx context.Context, sessionID string, candidates []entities.Seat) error
	Candidates(ctx context.Context, sessionID string) ([]entities.Seat, error)
	Withdraw(ctx context.Context, sessionID, userID string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
