package commands

import (
	"context"
	"fmt"
	"time"

	"werewolf/contexts/game/gameplay-service/application"
	domainerrors "werewolf/contexts/game/gameplay-service/domain/errors"
)

const defaultWarnBefore = 30 * time.Second

type StartCountdownCommand struct {
	SessionID string
	ChannelID string
	Duration  time.Duration
}

// StartCountdown opens the channel's timer: one announcement at start, a
// reminder shortly before the end, and a final call. One countdown per
// channel; StopCountdown cancels it.
func (uc GameplayUseCase) StartCountdown(ctx context.Context, cmd StartCountdownCommand) error {
	if cmd.Duration <= 0 {
		return domainerrors.ErrInvalidDuration
	}

	token, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(context.Background())
	if err := uc.Countdowns.PutCountdown(cmd.ChannelID, token, cancel); err != nil {
		cancel()
		return err
	}

	if _, err := uc.Messenger.Send(ctx, cmd.ChannelID, fmt.Sprintf("開始計時 %d秒", int(cmd.Duration.Seconds()))); err != nil {
		uc.Countdowns.ClearCountdown(cmd.ChannelID, token)
		cancel()
		return err
	}

	uc.publishEvent(ctx, "gameplay.countdown_started", cmd.SessionID, map[string]any{
		"channel_id": cmd.ChannelID,
		"seconds":    int(cmd.Duration.Seconds()),
	})
	go uc.runCountdown(runCtx, token, cmd)
	return nil
}

func (uc GameplayUseCase) runCountdown(ctx context.Context, token string, cmd StartCountdownCommand) {
	defer uc.Countdowns.ClearCountdown(cmd.ChannelID, token)

	warnBefore := uc.WarnBefore
	if warnBefore <= 0 {
		warnBefore = defaultWarnBefore
	}

	remaining := cmd.Duration
	if remaining >= warnBefore {
		if !uc.sleep(ctx, remaining-warnBefore) {
			return
		}
		uc.send(ctx, cmd.ChannelID, fmt.Sprintf("剩下%d秒", int(warnBefore.Seconds())))
		remaining = warnBefore
	}
	if !uc.sleep(ctx, remaining) {
		return
	}

	uc.send(ctx, cmd.ChannelID, "計時器結束!")
	uc.publishEvent(ctx, "gameplay.countdown_finished", cmd.SessionID, map[string]any{
		"channel_id": cmd.ChannelID,
	})
}

func (uc GameplayUseCase) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type StopCountdownCommand struct {
	SessionID string
	ChannelID string
}

// StopCountdown cancels the channel's running countdown.
func (uc GameplayUseCase) StopCountdown(ctx context.Context, cmd StopCountdownCommand) error {
	if err := uc.Countdowns.CancelCountdown(cmd.ChannelID); err != nil {
		return err
	}
	uc.send(ctx, cmd.ChannelID, "已停止")

	application.ResolveLogger(uc.Logger).Info("countdown stopped",
		"event", "gameplay_countdown_stopped",
		"module", "game/gameplay-service",
		"layer", "application",
		"channel_id", cmd.ChannelID,
	)
	uc.publishEvent(ctx, "gameplay.countdown_stopped", cmd.SessionID, map[string]any{
		"channel_id": cmd.ChannelID,
	})
	return nil
}
