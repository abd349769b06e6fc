package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"werewolf/contexts/game/gameplay-service/application"
	"werewolf/contexts/game/gameplay-service/domain/entities"
)

type OpenEnrollmentCommand struct {
	SessionID string
	ChannelID string
	Window    time.Duration
}

type EnrollmentHandleInfo struct {
	EnrollmentID string
	Deadline     time.Time
}

// OpenEnrollment posts the sheriff sign-up message and opens the toggle
// window. The render reference becomes the window id, so button presses on
// that message route straight back.
func (uc GameplayUseCase) OpenEnrollment(ctx context.Context, cmd OpenEnrollmentCommand) (EnrollmentHandleInfo, error) {
	logger := application.ResolveLogger(uc.Logger)

	window := cmd.Window
	if window <= 0 {
		window = DefaultEnrollmentWindow
	}

	fallbackID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return EnrollmentHandleInfo{}, err
	}
	enrollment := entities.NewEnrollment(fallbackID, cmd.SessionID, cmd.ChannelID, uc.now().Add(window))

	renderRef, err := uc.Renderer.PublishEnrollment(ctx, enrollment.View(false))
	if err != nil {
		return EnrollmentHandleInfo{}, err
	}
	if renderRef != "" {
		enrollment.ID = renderRef
		enrollment.RenderRef = renderRef
	}

	if _, err := uc.Enrollments.Register(ctx, enrollment); err != nil {
		return EnrollmentHandleInfo{}, err
	}

	logger.Info("sheriff enrollment opened",
		"event", "gameplay_enrollment_opened",
		"module", "game/gameplay-service",
		"layer", "application",
		"enrollment_id", enrollment.ID,
		"session_id", cmd.SessionID,
	)
	uc.publishEvent(ctx, "gameplay.enrollment_opened", cmd.SessionID, map[string]any{
		"enrollment_id": enrollment.ID,
		"deadline":      enrollment.Deadline,
	})
	go uc.remindEnrollment(enrollment.ID, cmd.ChannelID, window)
	return EnrollmentHandleInfo{EnrollmentID: enrollment.ID, Deadline: enrollment.Deadline}, nil
}

const defaultRemindBefore = 5 * time.Second

// remindEnrollment posts the last-seconds reminder while the window is
// still open. A window closed early just drops the reminder.
func (uc GameplayUseCase) remindEnrollment(enrollmentID, channelID string, window time.Duration) {
	remindBefore := uc.RemindBefore
	if remindBefore <= 0 {
		remindBefore = defaultRemindBefore
	}
	if window <= remindBefore {
		return
	}

	ctx := context.Background()
	if !uc.sleep(ctx, window-remindBefore) {
		return
	}
	if _, err := uc.Enrollments.Get(ctx, enrollmentID); err != nil {
		return
	}
	uc.send(ctx, channelID, fmt.Sprintf("剩下%d秒!", int(remindBefore.Seconds())))
}

type ToggleEnrollmentCommand struct {
	EnrollmentID string
	UserID       string
	DisplayName  string
}

// ToggleEnrollment flips the caller's candidacy while the window is open
// and reports whether the caller is enrolled afterwards.
func (uc GameplayUseCase) ToggleEnrollment(ctx context.Context, cmd ToggleEnrollmentCommand) (bool, error) {
	handle, err := uc.Enrollments.Get(ctx, cmd.EnrollmentID)
	if err != nil {
		return false, err
	}
	joined, err := handle.Toggle(entities.Seat{UserID: cmd.UserID, Name: cmd.DisplayName})
	if err != nil {
		return false, err
	}
	uc.publishEvent(ctx, "gameplay.enrollment_toggled", handle.Definition().SessionID, map[string]any{
		"user_id": cmd.UserID,
		"joined":  joined,
	})
	return joined, nil
}

type WithdrawCandidateCommand struct {
	SessionID string
	UserID    string
}

// WithdrawCandidate drops a candidate after the window closed. Late
// sign-ups are never accepted, late drop-outs always are.
func (uc GameplayUseCase) WithdrawCandidate(ctx context.Context, cmd WithdrawCandidateCommand) (bool, error) {
	removed, err := uc.Candidates.Withdraw(ctx, cmd.SessionID, cmd.UserID)
	if err != nil {
		return false, err
	}
	if removed {
		uc.publishEvent(ctx, "gameplay.candidate_withdrew", cmd.SessionID, map[string]any{
			"user_id": cmd.UserID,
		})
	}
	return removed, nil
}

// CloseEnrollment shuts the window exactly once, records the candidate
// list and announces the result with a random first speaker and direction.
func (uc GameplayUseCase) CloseEnrollment(ctx context.Context, enrollmentID string) error {
	logger := application.ResolveLogger(uc.Logger)

	handle, err := uc.Enrollments.Remove(ctx, enrollmentID)
	if err != nil {
		return err
	}
	view, wasOpen := handle.Close()
	if !wasOpen {
		return nil
	}

	if err := uc.Renderer.CloseEnrollment(ctx, view); err != nil {
		logger.Warn("enrollment render close failed",
			"event", "gameplay_enrollment_render_failed",
			"module", "game/gameplay-service",
			"layer", "application",
			"enrollment_id", enrollmentID,
			"error", err.Error(),
		)
	}

	if len(view.Members) == 0 {
		uc.send(ctx, view.ChannelID, "無人參選警長！")
	} else {
		if err := uc.Candidates.SetCandidates(ctx, view.SessionID, view.Members); err != nil {
			return err
		}
		names := make([]string, 0, len(view.Members))
		for _, member := range view.Members {
			names = append(names, member.Name)
		}
		sort.Strings(names)
		uc.send(ctx, view.ChannelID, fmt.Sprintf("參選的有: %s", strings.Join(names, "，")))

		speaker := names[uc.pickIndex(len(names))]
		direction := "上"
		if !uc.pickBool() {
			direction = "下"
		}
		uc.send(ctx, view.ChannelID, fmt.Sprintf("發言順序：%s%s\n\n注意：已參選者可以隨時再按一次來退選，但不可參選", speaker, direction))
	}

	logger.Info("sheriff enrollment closed",
		"event", "gameplay_enrollment_closed",
		"module", "game/gameplay-service",
		"layer", "application",
		"enrollment_id", enrollmentID,
		"candidates", len(view.Members),
	)
	uc.publishEvent(ctx, "gameplay.enrollment_closed", view.SessionID, map[string]any{
		"enrollment_id": enrollmentID,
		"candidates":    len(view.Members),
	})
	return nil
}

