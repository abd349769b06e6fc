package queries

import (
	"context"

	"werewolf/contexts/game/session-service/domain/entities"
	"werewolf/contexts/game/session-service/ports"
)

// SessionsUseCase exposes read access for the dashboard.
type SessionsUseCase struct {
	Sessions ports.SessionStore
}

func (uc SessionsUseCase) ListSessions(ctx context.Context) ([]entities.Session, error) {
	return uc.Sessions.List(ctx)
}

func (uc SessionsUseCase) GetSession(ctx context.Context, sessionID string) (entities.Session, error) {
	return uc.Sessions.Get(ctx, sessionID)
}
