package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	pollengine "werewolf/contexts/game/poll-engine"
	sessionservice "werewolf/contexts/game/session-service"
	"werewolf/internal/platform/messaging"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "werewolf/internal/platform/httpserver/docs"
)

// Server exposes the read-only dashboard: active polls, live sessions and
// the recent event log. All mutation happens through Discord interactions.
type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	polls    pollengine.Module
	sessions sessionservice.Module
	log      *messaging.GameLog
}

func New(
	polls pollengine.Module,
	sessions sessionservice.Module,
	gameLog *messaging.GameLog,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		polls:    polls,
		sessions: sessions,
		log:      gameLog,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /api/v1/polls", s.handleListPolls)
	s.mux.HandleFunc("GET /api/v1/polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("GET /api/v1/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /api/v1/sessions/{session_id}", s.handleGetSession)
	s.mux.HandleFunc("GET /api/v1/sessions/{session_id}/log", s.handleSessionLog)
	s.mux.HandleFunc("GET /api/v1/log", s.handleGameLog)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
