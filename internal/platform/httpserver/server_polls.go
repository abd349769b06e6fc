package httpserver

import (
	"errors"
	"net/http"

	pollerrors "werewolf/contexts/game/poll-engine/domain/errors"
	pollhttp "werewolf/contexts/game/poll-engine/transport/http"
)

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	views, err := s.polls.Queries.ListPolls(r.Context())
	if err != nil {
		writePollDomainError(w, err)
		return
	}

	items := make([]pollhttp.PollResponse, 0, len(views))
	for _, view := range views {
		items = append(items, pollhttp.PollResponseFromView(view))
	}
	writeJSON(w, http.StatusOK, pollhttp.PollListResponse{Items: items})
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("poll_id")
	view, err := s.polls.Queries.GetPoll(r.Context(), pollID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pollhttp.PollResponseFromView(view))
}

func writePollError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollhttp.ErrorResponse{Code: code, Message: message})
}

func writePollDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pollerrors.ErrPollNotFound):
		writePollError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, pollerrors.ErrInvalidOptions),
		errors.Is(err, pollerrors.ErrInvalidParameters),
		errors.Is(err, pollerrors.ErrUnknownOption):
		writePollError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, pollerrors.ErrPollClosed):
		writePollError(w, http.StatusConflict, "poll_closed", err.Error())
	default:
		writePollError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
