package httpserver

import (
	"errors"
	"net/http"

	sessionerrors "werewolf/contexts/game/session-service/domain/errors"
	sessionhttp "werewolf/contexts/game/session-service/transport/http"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.Queries.ListSessions(r.Context())
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}

	items := make([]sessionhttp.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, sessionhttp.SessionResponseFromEntity(session))
	}
	writeJSON(w, http.StatusOK, sessionhttp.SessionListResponse{Sessions: items})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	session, err := s.sessions.Queries.GetSession(r.Context(), sessionID)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionhttp.SessionResponseFromEntity(session))
}

func writeSessionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, sessionhttp.ErrorResponse{Code: code, Message: message})
}

func writeSessionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionerrors.ErrSessionNotFound),
		errors.Is(err, sessionerrors.ErrPlayerNotFound):
		writeSessionError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, sessionerrors.ErrInvalidPlayerCount),
		errors.Is(err, sessionerrors.ErrRoleCountMismatch),
		errors.Is(err, sessionerrors.ErrRoomCountMismatch):
		writeSessionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeSessionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
