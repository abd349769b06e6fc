package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"werewolf/contexts/game/gameplay-service/application"
	"werewolf/contexts/game/gameplay-service/domain/entities"
	domainerrors "werewolf/contexts/game/gameplay-service/domain/errors"
	"werewolf/contexts/game/gameplay-service/ports"
)

const (
	exilePollTopic   = "放逐投票"
	sheriffPollTopic = "警長投票"
)

type StartExilePollCommand struct {
	SessionID string
	ChannelID string
	Duration  time.Duration
}

// StartExilePoll opens a one-vote-per-player poll over every alive player.
// Only alive players may vote. A clear winner is announced as exiled; a tie
// immediately reopens the poll over the tied players only.
func (uc GameplayUseCase) StartExilePoll(ctx context.Context, cmd StartExilePollCommand) (string, error) {
	seats, err := uc.Roster.AlivePlayers(ctx, cmd.SessionID)
	if err != nil {
		return "", err
	}
	if len(seats) == 0 {
		return "", domainerrors.ErrNoAlivePlayers
	}

	eligible := func(ctx context.Context, userID string) bool {
		return uc.seatAlive(ctx, cmd.SessionID, userID)
	}
	announce := func(ctx context.Context, winnerID string) {
		uc.send(ctx, cmd.ChannelID, fmt.Sprintf("投票結束，被放逐者：<@!%s>", winnerID))
		uc.publishEvent(ctx, "gameplay.player_exiled", cmd.SessionID, map[string]any{"user_id": winnerID})
	}
	return uc.launchElimination(ctx, cmd.SessionID, cmd.ChannelID, exilePollTopic, seats, cmd.Duration, eligible, announce)
}

type StartSheriffPollCommand struct {
	SessionID string
	ChannelID string
	Duration  time.Duration
}

// StartSheriffPoll opens the sheriff election over the enrolled candidates.
// Alive non-candidates vote. Ties reopen the poll over the tied candidates.
func (uc GameplayUseCase) StartSheriffPoll(ctx context.Context, cmd StartSheriffPollCommand) (string, error) {
	candidates, err := uc.Candidates.Candidates(ctx, cmd.SessionID)
	if err != nil {
		return "", err
	}

	running := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		running[candidate.UserID] = true
	}

	eligible := func(ctx context.Context, userID string) bool {
		if running[userID] {
			return false
		}
		return uc.seatAlive(ctx, cmd.SessionID, userID)
	}
	announce := func(ctx context.Context, winnerID string) {
		uc.send(ctx, cmd.ChannelID, fmt.Sprintf("投票結束，當選警長者：<@!%s>", winnerID))
		uc.publishEvent(ctx, "gameplay.sheriff_elected", cmd.SessionID, map[string]any{"user_id": winnerID})
	}
	return uc.launchElimination(ctx, cmd.SessionID, cmd.ChannelID, sheriffPollTopic, candidates, cmd.Duration, eligible, announce)
}

// launchElimination opens one elimination round and chains re-votes over
// tied options until a single winner emerges.
func (uc GameplayUseCase) launchElimination(
	ctx context.Context,
	sessionID, channelID, topic string,
	seats []entities.Seat,
	duration time.Duration,
	eligible func(context.Context, string) bool,
	announce func(context.Context, string),
) (string, error) {
	logger := application.ResolveLogger(uc.Logger)

	if duration <= 0 {
		duration = DefaultPollDuration
	}
	options := make([]ports.PollOption, 0, len(seats))
	for _, seat := range seats {
		options = append(options, ports.PollOption{ID: seat.UserID, Label: seat.Name})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Label < options[j].Label })

	onComplete := func(ctx context.Context, winners []ports.PollOption) {
		if len(winners) == 1 {
			announce(ctx, winners[0].ID)
			return
		}
		uc.send(ctx, channelID, "有平票！平票者將重新被票選！")
		tied := make([]entities.Seat, 0, len(winners))
		for _, winner := range winners {
			tied = append(tied, entities.Seat{UserID: winner.ID, Name: winner.Label})
		}
		if _, err := uc.launchElimination(ctx, sessionID, channelID, topic, tied, duration, eligible, announce); err != nil {
			logger.Error("re-vote launch failed",
				"event", "gameplay_revote_failed",
				"module", "game/gameplay-service",
				"layer", "application",
				"topic", topic,
				"error", err.Error(),
			)
		}
	}

	pollID, err := uc.Polls.LaunchPoll(ctx, ports.PollSpec{
		SessionID:       sessionID,
		ChannelID:       channelID,
		Topic:           topic,
		Options:         options,
		Duration:        duration,
		MaxVotesPerUser: 1,
		ShowLiveCounts:  false,
		Eligible:        eligible,
		OnComplete:      onComplete,
	})
	if err != nil {
		return "", err
	}

	logger.Info("elimination poll opened",
		"event", "gameplay_poll_opened",
		"module", "game/gameplay-service",
		"layer", "application",
		"topic", topic,
		"poll_id", pollID,
		"options", len(options),
	)
	return pollID, nil
}

// seatAlive checks the roster at press time, so a player who dies while a
// poll is open loses the vote immediately.
func (uc GameplayUseCase) seatAlive(ctx context.Context, sessionID, userID string) bool {
	seats, err := uc.Roster.AlivePlayers(ctx, sessionID)
	if err != nil {
		return false
	}
	for _, seat := range seats {
		if seat.UserID == userID {
			return true
		}
	}
	return false
}

func (uc GameplayUseCase) send(ctx context.Context, channelID, content string) {
	if _, err := uc.Messenger.Send(ctx, channelID, content); err != nil {
		application.ResolveLogger(uc.Logger).Warn("channel message failed",
			"event", "gameplay_message_failed",
			"module", "game/gameplay-service",
			"layer", "application",
			"channel_id", channelID,
			"error", err.Error(),
		)
	}
}
