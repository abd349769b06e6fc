package commands

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"werewolf/contexts/game/gameplay-service/ports"
	"werewolf/internal/shared/events"
)

const (
	gameplayTopic = "gameplay.events"

	// DefaultPollDuration matches the in-game voting window.
	DefaultPollDuration = 20 * time.Second
	// DefaultEnrollmentWindow is how long sheriff sign-up stays open.
	DefaultEnrollmentWindow = 15 * time.Second
)

// GameplayUseCase drives the in-game flows: exile votes, the sheriff
// election with its sign-up window, countdowns and speech ordering.
type GameplayUseCase struct {
	Enrollments ports.EnrollmentStore
	Renderer    ports.EnrollmentRenderer
	Candidates  ports.CandidateBoard
	Countdowns  CountdownRegistry
	Roster      ports.RosterProvider
	Polls       ports.PollLauncher
	Messenger   ports.Messenger
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Events      ports.EventPublisher
	Rand        *rand.Rand
	Logger      *slog.Logger

	// WarnBefore is how far ahead of the countdown end the reminder is
	// posted. Zero means the 30 second default.
	WarnBefore time.Duration
	// RemindBefore is how far ahead of the sign-up deadline the reminder
	// is posted. Zero means the 5 second default.
	RemindBefore time.Duration
}

// CountdownRegistry tracks the one running countdown per channel.
type CountdownRegistry interface {
	PutCountdown(channelID, token string, cancel context.CancelFunc) error
	CancelCountdown(channelID string) error
	ClearCountdown(channelID, token string)
}

func (uc GameplayUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc GameplayUseCase) pickIndex(n int) int {
	if uc.Rand != nil {
		return uc.Rand.Intn(n)
	}
	return rand.Intn(n)
}

func (uc GameplayUseCase) pickBool() bool {
	return uc.pickIndex(2) == 0
}

func (uc GameplayUseCase) publishEvent(ctx context.Context, eventType, sessionID string, payload map[string]any) {
	if uc.Events == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	_ = uc.Events.Publish(ctx, gameplayTopic, events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "game/gameplay-service",
		OccurredAtUTC: uc.now(),
		EntityType:    "session",
		EntityID:      sessionID,
		SessionID:     sessionID,
		Payload:       payload,
	})
}
