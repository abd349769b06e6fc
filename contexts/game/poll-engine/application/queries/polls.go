package queries

import (
	"context"

	"werewolf/contexts/game/poll-engine/domain/entities"
	"werewolf/contexts/game/poll-engine/ports"
)

// PollsUseCase serves read-only poll state to the dashboard.
type PollsUseCase struct {
	Polls ports.PollStore
}

// ListPolls returns every active poll ordered by expiry.
func (uc PollsUseCase) ListPolls(ctx context.Context) ([]entities.PollView, error) {
	return uc.Polls.Views(ctx)
}

// GetPoll returns one active poll's live snapshot.
func (uc PollsUseCase) GetPoll(ctx context.Context, pollID string) (entities.PollView, error) {
	handle, err := uc.Polls.Get(ctx, pollID)
	if err != nil {
		return entities.PollView{}, err
	}
	return handle.View(), nil
}
