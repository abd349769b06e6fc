package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pollengine "werewolf/contexts/game/poll-engine"
	pollentities "werewolf/contexts/game/poll-engine/domain/entities"
	pollhttp "werewolf/contexts/game/poll-engine/transport/http"
	sessionservice "werewolf/contexts/game/session-service"
	sessionentities "werewolf/contexts/game/session-service/domain/entities"
	sessionhttp "werewolf/contexts/game/session-service/transport/http"
	"werewolf/internal/platform/messaging"
	"werewolf/internal/shared/events"
)

type nopRenderer struct{}

func (nopRenderer) Publish(context.Context, pollentities.PollView) (string, error) {
	return "msg-1", nil
}
func (nopRenderer) Refresh(context.Context, pollentities.PollView) error { return nil }
func (nopRenderer) Close(context.Context, pollentities.PollView, []pollentities.Option) error {
	return nil
}
func (nopRenderer) Announce(context.Context, pollentities.PollView, []pollentities.Option) error {
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	polls := pollengine.NewInMemoryModule(nopRenderer{}, nil)
	sessions := sessionservice.NewInMemoryModule(nil, nil)

	poll := pollentities.NewPoll("poll-1", "放逐投票", []pollentities.Option{
		{ID: "u1", Label: "玩家 1"},
		{ID: "u2", Label: "玩家 2"},
	})
	poll.ExpireAt = time.Now().Add(time.Minute)
	poll.MaxVotesPerUser = 1
	poll.ShowLiveCounts = true
	poll.ChannelID = "chan-1"
	if _, err := polls.Store.Register(context.Background(), poll); err != nil {
		t.Fatalf("register poll: %v", err)
	}

	session := sessionentities.Session{
		ID:          "sess-1",
		GuildID:     "guild-1",
		PlayerCount: 2,
		InviteURL:   "https://discord.gg/abc",
		Players: []sessionentities.Player{
			{UserID: "u1", DisplayName: "Alice", RoleName: "玩家 1", Alive: true},
			{UserID: "u2", DisplayName: "Bob", RoleName: "玩家 2", Alive: false},
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := sessions.Store.Register(context.Background(), session); err != nil {
		t.Fatalf("register session: %v", err)
	}

	return New(polls, sessions, newSeededLog(), nil, "")
}

func newSeededLog() *messaging.GameLog {
	log := messaging.NewGameLog(0)
	log.Append(events.Envelope{
		EventID:   "ev-1",
		EventType: "poll.created",
		EntityID:  "poll-1",
		SessionID: "sess-1",
	})
	log.Append(events.Envelope{
		EventID:   "ev-2",
		EventType: "session.created",
		EntityID:  "sess-1",
		SessionID: "sess-2",
	})
	return log
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func TestListPolls(t *testing.T) {
	server := newTestServer(t)

	recorder := get(t, server, "/api/v1/polls")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}

	var resp pollhttp.PollListResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(resp.Items))
	}
	if resp.Items[0].PollID != "poll-1" || resp.Items[0].Topic != "放逐投票" {
		t.Fatalf("unexpected poll: %+v", resp.Items[0])
	}
}

func TestGetPollNotFound(t *testing.T) {
	server := newTestServer(t)

	recorder := get(t, server, "/api/v1/polls/missing")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}

	var resp pollhttp.ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "not_found" {
		t.Fatalf("code = %q, want not_found", resp.Code)
	}
}

func TestGetSession(t *testing.T) {
	server := newTestServer(t)

	recorder := get(t, server, "/api/v1/sessions/sess-1")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}

	var resp sessionhttp.SessionResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID != "sess-1" || len(resp.Players) != 2 {
		t.Fatalf("unexpected session: %+v", resp)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	server := newTestServer(t)

	recorder := get(t, server, "/api/v1/sessions/missing")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}
}

func TestGameLogFiltersBySession(t *testing.T) {
	server := newTestServer(t)

	recorder := get(t, server, "/api/v1/log?session_id=sess-1")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}

	var resp gameLogResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].EventID != "ev-1" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
}

func TestSessionLogScopesToSession(t *testing.T) {
	server := newTestServer(t)

	recorder := get(t, server, "/api/v1/sessions/sess-1/log")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusOK)
	}

	var resp gameLogResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].EventID != "ev-1" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}

	if recorder := get(t, server, "/api/v1/sessions/missing/log"); recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}
}

func TestGameLogRejectsBadLimit(t *testing.T) {
	server := newTestServer(t)

	recorder := get(t, server, "/api/v1/log?limit=nope")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
	}
}
