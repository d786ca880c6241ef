package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"livepolls/contexts/live-polls/poll-catalog/domain/entities"
	domainerrors "livepolls/contexts/live-polls/poll-catalog/domain/errors"
)

// Store is the in-memory poll repository used by tests and memory-mode wiring.
type Store struct {
	mu    sync.RWMutex
	polls map[string]entities.Poll
}

func NewStore(seed []entities.Poll) *Store {
	polls := make(map[string]entities.Poll, len(seed))
	for _, poll := range seed {
		polls[poll.PollID] = poll
	}
	return &Store{polls: polls}
}

func (s *Store) SavePoll(_ context.Context, poll entities.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pollID := strings.TrimSpace(poll.PollID)
	if _, exists := s.polls[pollID]; exists {
		return domainerrors.ErrPollExists
	}
	s.polls[pollID] = poll
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return poll, nil
}

func (s *Store) ListPollIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pollIDs := make([]string, 0, len(s.polls))
	for pollID := range s.polls {
		pollIDs = append(pollIDs, pollID)
	}
	sort.Strings(pollIDs)
	return pollIDs, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
