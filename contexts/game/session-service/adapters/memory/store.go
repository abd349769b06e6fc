package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"werewolf/contexts/game/session-service/domain/entities"
	domainerrors "werewolf/contexts/game/session-service/domain/errors"
)

// Store is an in-memory session registry. It also serves as the module's
// Clock and IDGenerator.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]entities.Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]entities.Session)}
}

func (s *Store) Register(_ context.Context, session entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return domainerrors.ErrDuplicateSessionID
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *Store) Save(_ context.Context, session entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; !exists {
		return domainerrors.ErrSessionNotFound
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *Store) Get(_ context.Context, sessionID string) (entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *Store) Remove(_ context.Context, sessionID string) (entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return cloneSession(session), nil
}

func (s *Store) List(_ context.Context) ([]entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]entities.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, cloneSession(session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneSession(session entities.Session) entities.Session {
	clone := session
	clone.PlayerRoles = append([]entities.RoleRef(nil), session.PlayerRoles...)
	clone.Players = append([]entities.Player(nil), session.Players...)
	return clone
}
