package http

import (
	"time"

	"werewolf/contexts/game/session-service/domain/entities"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PlayerResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	RoleName    string `json:"role_name"`
	Alive       bool   `json:"alive"`
}

type SessionResponse struct {
	SessionID   string           `json:"session_id"`
	GuildID     string           `json:"guild_id"`
	PlayerCount int              `json:"player_count"`
	InviteURL   string           `json:"invite_url"`
	Players     []PlayerResponse `json:"players"`
	CreatedAt   time.Time        `json:"created_at"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

func SessionResponseFromEntity(session entities.Session) SessionResponse {
	players := make([]PlayerResponse, 0, len(session.Players))
	for _, player := range session.Players {
		players = append(players, PlayerResponse{
			UserID:      player.UserID,
			DisplayName: player.DisplayName,
			RoleName:    player.RoleName,
			Alive:       player.Alive,
		})
	}
	return SessionResponse{
		SessionID:   session.ID,
		GuildID:     session.GuildID,
		PlayerCount: session.PlayerCount,
		InviteURL:   session.InviteURL,
		Players:     players,
		CreatedAt:   session.CreatedAt,
	}
}
