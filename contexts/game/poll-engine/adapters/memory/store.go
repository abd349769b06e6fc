package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"werewolf/contexts/game/poll-engine/domain/entities"
	domainerrors "werewolf/contexts/game/poll-engine/domain/errors"
	"werewolf/contexts/game/poll-engine/ports"

	"github.com/google/uuid"
)

// activePoll wraps one registered poll with the mutex that serializes its
// mutations. The closed flag keeps a toggle that was already waiting on the
// mutex from touching the tally after finalize snapshotted it.
type activePoll struct {
	mu     sync.Mutex
	closed bool
	poll   *entities.Poll
}

func (a *activePoll) Definition() *entities.Poll {
	return a.poll
}

func (a *activePoll) Toggle(optionID string, voterID string) (entities.ToggleResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return entities.ToggleResult{}, domainerrors.ErrPollClosed
	}
	result := a.poll.Toggle(optionID, voterID)
	if result.Outcome == entities.ToggleUnknownOption {
		return entities.ToggleResult{}, domainerrors.ErrUnknownOption
	}
	return result, nil
}

func (a *activePoll) View() entities.PollView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.poll.View(a.closed)
}

func (a *activePoll) Close() (entities.PollView, []entities.Option, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return entities.PollView{}, nil, false
	}
	a.closed = true
	return a.poll.View(true), a.poll.Winners(), true
}

// Store is the in-memory poll registry. Map-level operations take the store
// lock; per-poll tally mutations take the poll's own lock, so votes on
// different polls proceed fully in parallel.
type Store struct {
	mu    sync.RWMutex
	polls map[string]*activePoll
}

func NewStore() *Store {
	return &Store{polls: make(map[string]*activePoll)}
}

func (s *Store) Register(_ context.Context, poll *entities.Poll) (ports.PollHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.polls[poll.ID]; exists {
		return nil, domainerrors.ErrDuplicatePollID
	}
	handle := &activePoll{poll: poll}
	s.polls[poll.ID] = handle
	return handle, nil
}

func (s *Store) Get(_ context.Context, pollID string) (ports.PollHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.polls[pollID]
	if !ok {
		return nil, domainerrors.ErrPollNotFound
	}
	return handle, nil
}

func (s *Store) Remove(_ context.Context, pollID string) (ports.PollHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.polls[pollID]
	if !ok {
		return nil, domainerrors.ErrPollNotFound
	}
	delete(s.polls, pollID)
	return handle, nil
}

func (s *Store) SnapshotExpired(_ context.Context, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	due := make([]string, 0)
	for id, handle := range s.polls {
		if !handle.poll.ExpireAt.After(now) {
			due = append(due, id)
		}
	}
	sort.Strings(due)
	return due, nil
}

func (s *Store) Views(_ context.Context) ([]entities.PollView, error) {
	s.mu.RLock()
	handles := make([]*activePoll, 0, len(s.polls))
	for _, handle := range s.polls {
		handles = append(handles, handle)
	}
	s.mu.RUnlock()

	views := make([]entities.PollView, 0, len(handles))
	for _, handle := range handles {
		views = append(views, handle.View())
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].ExpireAt.Before(views[j].ExpireAt)
	})
	return views, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
