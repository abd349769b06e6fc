package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"werewolf/contexts/game/gameplay-service/domain/entities"
	domainerrors "werewolf/contexts/game/gameplay-service/domain/errors"
	"werewolf/contexts/game/gameplay-service/ports"
)

// activeEnrollment wraps one open sign-up window with the mutex that
// serializes its toggles. The closed flag keeps a toggle that was already
// waiting on the mutex from landing after the window snapshot.
type activeEnrollment struct {
	mu         sync.Mutex
	closed     bool
	enrollment *entities.Enrollment
}

func (a *activeEnrollment) Definition() *entities.Enrollment {
	return a.enrollment
}

func (a *activeEnrollment) Toggle(seat entities.Seat) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false, domainerrors.ErrEnrollmentClosed
	}
	return a.enrollment.Toggle(seat), nil
}

func (a *activeEnrollment) View() entities.EnrollmentView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enrollment.View(a.closed)
}

func (a *activeEnrollment) Close() (entities.EnrollmentView, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return entities.EnrollmentView{}, false
	}
	a.closed = true
	return a.enrollment.View(true), true
}

// Store keeps the live gameplay state: open sign-up windows, the candidate
// board and the per-channel countdown registry. It also serves as the
// module's Clock and IDGenerator.
type Store struct {
	mu          sync.RWMutex
	enrollments map[string]*activeEnrollment
	candidates  map[string][]entities.Seat
	countdowns  map[string]countdownEntry
}

type countdownEntry struct {
	token  string
	cancel context.CancelFunc
}

func NewStore() *Store {
	return &Store{
		enrollments: make(map[string]*activeEnrollment),
		candidates:  make(map[string][]entities.Seat),
		countdowns:  make(map[string]countdownEntry),
	}
}

func (s *Store) Register(_ context.Context, enrollment *entities.Enrollment) (ports.EnrollmentHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.enrollments[enrollment.ID]; exists {
		return nil, domainerrors.ErrDuplicateEnrollmentID
	}
	handle := &activeEnrollment{enrollment: enrollment}
	s.enrollments[enrollment.ID] = handle
	return handle, nil
}

func (s *Store) Get(_ context.Context, enrollmentID string) (ports.EnrollmentHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.enrollments[enrollmentID]
	if !ok {
		return nil, domainerrors.ErrEnrollmentNotFound
	}
	return handle, nil
}

func (s *Store) Remove(_ context.Context, enrollmentID string) (ports.EnrollmentHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.enrollments[enrollmentID]
	if !ok {
		return nil, domainerrors.ErrEnrollmentNotFound
	}
	delete(s.enrollments, enrollmentID)
	return handle, nil
}

func (s *Store) SnapshotExpired(_ context.Context, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	due := make([]string, 0)
	for id, handle := range s.enrollments {
		if !handle.enrollment.Deadline.After(now) {
			due = append(due, id)
		}
	}
	sort.Strings(due)
	return due, nil
}

func (s *Store) SetCandidates(_ context.Context, sessionID string, candidates []entities.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[sessionID] = append([]entities.Seat(nil), candidates...)
	return nil
}

func (s *Store) Candidates(_ context.Context, sessionID string) ([]entities.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidates, ok := s.candidates[sessionID]
	if !ok || len(candidates) == 0 {
		return nil, domainerrors.ErrNoCandidates
	}
	return append([]entities.Seat(nil), candidates...), nil
}

func (s *Store) Withdraw(_ context.Context, sessionID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidates := s.candidates[sessionID]
	for i, candidate := range candidates {
		if candidate.UserID == userID {
			s.candidates[sessionID] = append(candidates[:i:i], candidates[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// PutCountdown registers the cancel handle of a started countdown. One
// countdown per channel.
func (s *Store) PutCountdown(channelID, token string, cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.countdowns[channelID]; exists {
		return domainerrors.ErrCountdownActive
	}
	s.countdowns[channelID] = countdownEntry{token: token, cancel: cancel}
	return nil
}

// CancelCountdown cancels and drops the channel's running countdown.
func (s *Store) CancelCountdown(channelID string) error {
	s.mu.Lock()
	entry, exists := s.countdowns[channelID]
	if exists {
		delete(s.countdowns, channelID)
	}
	s.mu.Unlock()
	if !exists {
		return domainerrors.ErrCountdownNotFound
	}
	entry.cancel()
	return nil
}

// ClearCountdown drops the entry if it still belongs to the given run.
func (s *Store) ClearCountdown(channelID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, exists := s.countdowns[channelID]; exists && entry.token == token {
		delete(s.countdowns, channelID)
	}
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
