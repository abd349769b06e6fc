package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"werewolf/contexts/game/poll-engine/application"
	"werewolf/contexts/game/poll-engine/domain/entities"
	domainerrors "werewolf/contexts/game/poll-engine/domain/errors"
	"werewolf/contexts/game/poll-engine/ports"
	"werewolf/internal/shared/events"
)

// CreatePollCommand is the write-model input for poll creation.
type CreatePollCommand struct {
	Topic           string
	Options         []entities.Option
	MaxVotesPerUser int
	ExpireAfter     time.Duration
	ShowLiveCounts  bool
	AnonymousVote   bool
	ChannelID       string
	SessionID       string
	Eligibility     entities.EligibilityFunc
	OnComplete      entities.CompletionFunc
}

// PollHandleInfo is the caller's reference to a registered poll.
type PollHandleInfo struct {
	PollID   string
	ExpireAt time.Time
}

// CastVoteCommand applies one incoming vote event.
type CastVoteCommand struct {
	PollID   string
	OptionID string
	Voter    entities.VoterContext
}

// CastVoteResult reports what the press did and the affected option's label.
type CastVoteResult struct {
	Outcome entities.ToggleOutcome
	Option  entities.Option
}

// PollUseCase owns poll lifecycle and vote dispatch: creation, per-vote
// validation and tally mutation, and finalize-exactly-once semantics.
type PollUseCase struct {
	Polls    ports.PollStore
	Renderer ports.Renderer
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Archive  ports.ArchiveWriter
	Events   ports.EventPublisher
	Logger   *slog.Logger
}

// CreatePoll validates the request, publishes the poll through the renderer,
// and registers it in the store. Nothing is registered on failure.
func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (PollHandleInfo, error) {
	logger := application.ResolveLogger(uc.Logger)
	if len(cmd.Options) == 0 {
		return PollHandleInfo{}, domainerrors.ErrInvalidOptions
	}
	seen := make(map[string]struct{}, len(cmd.Options))
	for _, option := range cmd.Options {
		if option.ID == "" {
			return PollHandleInfo{}, domainerrors.ErrInvalidOptions
		}
		if _, dup := seen[option.ID]; dup {
			return PollHandleInfo{}, domainerrors.ErrInvalidOptions
		}
		seen[option.ID] = struct{}{}
	}
	if cmd.MaxVotesPerUser < 0 || cmd.ExpireAfter < 0 {
		return PollHandleInfo{}, domainerrors.ErrInvalidParameters
	}

	now := uc.now()
	fallbackID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return PollHandleInfo{}, err
	}

	poll := entities.NewPoll(fallbackID, cmd.Topic, cmd.Options)
	poll.MaxVotesPerUser = cmd.MaxVotesPerUser
	poll.ExpireAt = now.Add(cmd.ExpireAfter)
	poll.ShowLiveCounts = cmd.ShowLiveCounts
	poll.AnonymousVote = cmd.AnonymousVote
	poll.ChannelID = cmd.ChannelID
	poll.Eligibility = cmd.Eligibility
	poll.OnComplete = cmd.OnComplete
	poll.CreatedAt = now

	renderRef, err := uc.Renderer.Publish(ctx, poll.View(false))
	if err != nil {
		logger.Error("poll publish failed",
			"event", "poll_publish_failed",
			"module", "game/poll-engine",
			"layer", "application",
			"topic", cmd.Topic,
			"error", err.Error(),
		)
		return PollHandleInfo{}, err
	}
	if renderRef != "" {
		// The published message id doubles as the poll id, matching what
		// button interactions carry back.
		poll.ID = renderRef
		poll.RenderRef = renderRef
	}

	if _, err := uc.Polls.Register(ctx, poll); err != nil {
		return PollHandleInfo{}, err
	}

	logger.Info("poll created",
		"event", "poll_created",
		"module", "game/poll-engine",
		"layer", "application",
		"poll_id", poll.ID,
		"topic", poll.Topic,
		"options", len(poll.Options),
		"max_votes_per_user", poll.MaxVotesPerUser,
		"expire_at", poll.ExpireAt,
	)
	uc.publishEvent(ctx, "poll.created", poll.ID, cmd.SessionID, map[string]any{
		"topic":     poll.Topic,
		"options":   len(poll.Options),
		"expire_at": poll.ExpireAt,
	})
	return PollHandleInfo{PollID: poll.ID, ExpireAt: poll.ExpireAt}, nil
}

// CastVote validates and applies one vote event: closed-poll check,
// eligibility predicate, tally toggle, then a full render refresh. Rejected
// attempts mutate nothing and trigger no refresh.
func (uc PollUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	handle, err := uc.Polls.Get(ctx, cmd.PollID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrPollNotFound) {
			return CastVoteResult{}, domainerrors.ErrPollClosed
		}
		return CastVoteResult{}, err
	}

	definition := handle.Definition()
	if definition.Eligibility != nil && !definition.Eligibility(ctx, cmd.Voter) {
		return CastVoteResult{}, domainerrors.ErrNotEligible
	}

	result, err := handle.Toggle(cmd.OptionID, cmd.Voter.UserID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if result.Outcome == entities.ToggleLimitReached {
		labels := make([]string, 0, len(result.Selections))
		for _, option := range result.Selections {
			labels = append(labels, option.Label)
		}
		return CastVoteResult{}, &domainerrors.LimitExceededError{
			Limit:      result.Limit,
			Selections: labels,
		}
	}

	// Mutation committed; refresh outside the poll lock. A failed refresh
	// is logged and retried implicitly by the next vote's full re-render.
	if err := uc.Renderer.Refresh(ctx, handle.View()); err != nil {
		logger.Warn("poll refresh failed",
			"event", "poll_refresh_failed",
			"module", "game/poll-engine",
			"layer", "application",
			"poll_id", cmd.PollID,
			"error", err.Error(),
		)
	}

	logger.Info("vote toggled",
		"event", "poll_vote_toggled",
		"module", "game/poll-engine",
		"layer", "application",
		"poll_id", cmd.PollID,
		"option_id", cmd.OptionID,
		"voter_id", cmd.Voter.UserID,
		"outcome", string(result.Outcome),
	)
	uc.publishEvent(ctx, "poll.vote."+string(result.Outcome), cmd.PollID, "", map[string]any{
		"option_id": cmd.OptionID,
		"voter_id":  cmd.Voter.UserID,
	})
	return CastVoteResult{Outcome: result.Outcome, Option: result.Option}, nil
}

// Finalize closes a poll exactly once. Store removal is the exclusivity
// gate: concurrent triggers (sweeper tick and an explicit early finalize)
// race on Remove and only the winner proceeds to winner computation, the
// closing render, and the completion callback.
func (uc PollUseCase) Finalize(ctx context.Context, pollID string) error {
	logger := application.ResolveLogger(uc.Logger)

	handle, err := uc.Polls.Remove(ctx, pollID)
	if err != nil {
		return err
	}
	view, winners, ok := handle.Close()
	if !ok {
		return nil
	}

	// The tally-side finalize is committed at this point. Render and
	// archive failures are logged and never recompute the result.
	if err := uc.Renderer.Close(ctx, view, winners); err != nil {
		logger.Error("poll closing render failed",
			"event", "poll_close_render_failed",
			"module", "game/poll-engine",
			"layer", "application",
			"poll_id", pollID,
			"error", err.Error(),
		)
	}
	if uc.Archive != nil {
		result := ports.PollResult{
			PollID:        view.ID,
			Topic:         view.Topic,
			ChannelID:     view.ChannelID,
			Winners:       winners,
			Counts:        view.Options,
			AnonymousVote: view.AnonymousVote,
			FinalizedAt:   uc.now(),
		}
		if err := uc.Archive.SavePollResult(ctx, result); err != nil {
			logger.Error("poll archive write failed",
				"event", "poll_archive_failed",
				"module", "game/poll-engine",
				"layer", "application",
				"poll_id", pollID,
				"error", err.Error(),
			)
		}
	}

	definition := handle.Definition()
	if definition.OnComplete != nil {
		definition.OnComplete(ctx, winners)
	} else if err := uc.Renderer.Announce(ctx, view, winners); err != nil {
		logger.Warn("poll winner announcement failed",
			"event", "poll_announce_failed",
			"module", "game/poll-engine",
			"layer", "application",
			"poll_id", pollID,
			"error", err.Error(),
		)
	}

	winnerIDs := make([]string, 0, len(winners))
	for _, winner := range winners {
		winnerIDs = append(winnerIDs, winner.ID)
	}
	logger.Info("poll finalized",
		"event", "poll_finalized",
		"module", "game/poll-engine",
		"layer", "application",
		"poll_id", pollID,
		"topic", view.Topic,
		"winners", winnerIDs,
	)
	uc.publishEvent(ctx, "poll.finalized", pollID, "", map[string]any{
		"topic":   view.Topic,
		"winners": winnerIDs,
	})
	return nil
}

func (uc PollUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc PollUseCase) publishEvent(ctx context.Context, eventType string, pollID string, sessionID string, payload map[string]any) {
	if uc.Events == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	_ = uc.Events.Publish(ctx, "poll.events", events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "game/poll-engine",
		OccurredAtUTC: uc.now(),
		EntityType:    "poll",
		EntityID:      pollID,
		SessionID:     sessionID,
		Payload:       payload,
	})
}
