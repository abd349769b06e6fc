package httpserver

import (
	"net/http"
	"strconv"

	"werewolf/internal/shared/events"
)

type gameLogResponse struct {
	Entries []events.Envelope `json:"entries"`
}

func (s *Server) handleGameLog(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	entries := s.log.Recent(r.URL.Query().Get("session_id"), limit)
	writeJSON(w, http.StatusOK, gameLogResponse{Entries: entries})
}

func (s *Server) handleSessionLog(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if _, err := s.sessions.Queries.GetSession(r.Context(), sessionID); err != nil {
		writeSessionDomainError(w, err)
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	entries := s.log.Recent(sessionID, limit)
	writeJSON(w, http.StatusOK, gameLogResponse{Entries: entries})
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitRaw := r.URL.Query().Get("limit")
	if limitRaw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return 0, false
	}
	return limit, true
}
