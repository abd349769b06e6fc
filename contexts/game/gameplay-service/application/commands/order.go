package commands

import (
	"context"
	"fmt"

	"werewolf/contexts/game/gameplay-service/domain/entities"
	domainerrors "werewolf/contexts/game/gameplay-service/domain/errors"
)

type SpeakingOrderCommand struct {
	SessionID string
	ChannelID string
}

// AnnounceSpeakingOrder draws a random first speaker and direction over
// the alive players and posts the resulting sequence.
func (uc GameplayUseCase) AnnounceSpeakingOrder(ctx context.Context, cmd SpeakingOrderCommand) ([]entities.Seat, error) {
	seats, err := uc.Roster.AlivePlayers(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, domainerrors.ErrNoAlivePlayers
	}

	start := uc.pickIndex(len(seats))
	forward := uc.pickBool()
	order := entities.SpeakingOrder(seats, start, forward)

	direction := "上"
	if !forward {
		direction = "下"
	}
	uc.send(ctx, cmd.ChannelID, fmt.Sprintf("順序：%s %s", order[0].Name, direction))

	uc.publishEvent(ctx, "gameplay.speaking_order", cmd.SessionID, map[string]any{
		"first":   order[0].UserID,
		"forward": forward,
	})
	return order, nil
}
