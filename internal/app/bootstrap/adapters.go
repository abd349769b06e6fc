package bootstrap

import (
	"context"

	gameplayentities "werewolf/contexts/game/gameplay-service/domain/entities"
	gameplayports "werewolf/contexts/game/gameplay-service/ports"
	pollcommands "werewolf/contexts/game/poll-engine/application/commands"
	pollentities "werewolf/contexts/game/poll-engine/domain/entities"
	sessionqueries "werewolf/contexts/game/session-service/application/queries"
)

// pollLauncher adapts the voting engine's command surface to the launcher
// port the gameplay flows depend on, keeping the two contexts decoupled.
type pollLauncher struct {
	polls pollcommands.PollUseCase
}

func (l pollLauncher) LaunchPoll(ctx context.Context, spec gameplayports.PollSpec) (string, error) {
	options := make([]pollentities.Option, 0, len(spec.Options))
	for _, option := range spec.Options {
		options = append(options, pollentities.Option{ID: option.ID, Label: option.Label})
	}

	cmd := pollcommands.CreatePollCommand{
		Topic:           spec.Topic,
		Options:         options,
		MaxVotesPerUser: spec.MaxVotesPerUser,
		ExpireAfter:     spec.Duration,
		ShowLiveCounts:  spec.ShowLiveCounts,
		AnonymousVote:   spec.AnonymousVote,
		ChannelID:       spec.ChannelID,
		SessionID:       spec.SessionID,
	}
	if spec.Eligible != nil {
		eligible := spec.Eligible
		cmd.Eligibility = func(ctx context.Context, voter pollentities.VoterContext) bool {
			return eligible(ctx, voter.UserID)
		}
	}
	if spec.OnComplete != nil {
		onComplete := spec.OnComplete
		cmd.OnComplete = func(ctx context.Context, winners []pollentities.Option) {
			converted := make([]gameplayports.PollOption, 0, len(winners))
			for _, winner := range winners {
				converted = append(converted, gameplayports.PollOption{ID: winner.ID, Label: winner.Label})
			}
			onComplete(ctx, converted)
		}
	}

	info, err := l.polls.CreatePoll(ctx, cmd)
	if err != nil {
		return "", err
	}
	return info.PollID, nil
}

// sessionRoster resolves alive seats from the session service. Seat names
// are the assigned role names, which double as the players' nicknames.
type sessionRoster struct {
	sessions sessionqueries.SessionsUseCase
}

func (r sessionRoster) AlivePlayers(ctx context.Context, sessionID string) ([]gameplayentities.Seat, error) {
	session, err := r.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	alive := session.AlivePlayers()
	seats := make([]gameplayentities.Seat, 0, len(alive))
	for _, player := range alive {
		seats = append(seats, gameplayentities.Seat{UserID: player.UserID, Name: player.RoleName})
	}
	return seats, nil
}
