package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"livepolls/contexts/live-polls/vote-engine/domain/entities"
	domainerrors "livepolls/contexts/live-polls/vote-engine/domain/errors"
)

// Store is the in-memory registry, ledger and poll directory used by tests
// and memory-mode wiring. Per-key ledger updates are atomic under the store
// mutex, matching the ScoreLedger contract.
type Store struct {
	mu sync.RWMutex

	choices map[string]entities.Choice  // sessionID/pollID -> current choice
	scores  map[string]map[string]int64 // pollID -> optionID -> votes
	polls   map[string][]string         // pollID -> option ids, directory projection
}

func NewStore() *Store {
	return &Store{
		choices: make(map[string]entities.Choice),
		scores:  make(map[string]map[string]int64),
		polls:   make(map[string][]string),
	}
}

// SetPollOptions seeds the directory projection for a poll.
func (s *Store) SetPollOptions(pollID string, optionIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[strings.TrimSpace(pollID)] = append([]string(nil), optionIDs...)
}

func (s *Store) GetChoice(_ context.Context, sessionID string, pollID string) (entities.Choice, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	choice, ok := s.choices[choiceKey(sessionID, pollID)]
	return choice, ok, nil
}

func (s *Store) RecordChoice(_ context.Context, choice entities.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := choiceKey(choice.SessionID, choice.PollID)
	if _, exists := s.choices[key]; exists {
		return domainerrors.ErrChoiceExists
	}
	s.choices[key] = choice
	return nil
}

func (s *Store) ReplaceChoice(_ context.Context, sessionID string, pollID string, oldOptionID string, next entities.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := choiceKey(sessionID, pollID)
	current, exists := s.choices[key]
	if !exists || current.OptionID != strings.TrimSpace(oldOptionID) {
		return domainerrors.ErrChoiceNotFound
	}
	s.choices[key] = next
	return nil
}

func (s *Store) DeleteChoice(_ context.Context, sessionID string, pollID string, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := choiceKey(sessionID, pollID)
	current, exists := s.choices[key]
	if !exists || current.OptionID != strings.TrimSpace(optionID) {
		return domainerrors.ErrChoiceNotFound
	}
	delete(s.choices, key)
	return nil
}

func (s *Store) CountByOption(_ context.Context, pollID string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pollID = strings.TrimSpace(pollID)
	counts := make(map[string]int64)
	for _, choice := range s.choices {
		if choice.PollID == pollID {
			counts[choice.OptionID]++
		}
	}
	return counts, nil
}

func (s *Store) Increment(_ context.Context, pollID string, optionID string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pollID = strings.TrimSpace(pollID)
	optionID = strings.TrimSpace(optionID)
	poll, ok := s.scores[pollID]
	if !ok {
		poll = make(map[string]int64)
		s.scores[pollID] = poll
	}
	poll[optionID] += delta
	return poll[optionID], nil
}

func (s *Store) Snapshot(_ context.Context, pollID string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]int64)
	for optionID, votes := range s.scores[strings.TrimSpace(pollID)] {
		snapshot[optionID] = votes
	}
	return snapshot, nil
}

func (s *Store) ListOptionIDs(_ context.Context, pollID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	optionIDs, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return nil, domainerrors.ErrPollNotFound
	}
	return append([]string(nil), optionIDs...), nil
}

func (s *Store) ListPollIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pollIDs := make([]string, 0, len(s.polls))
	for pollID := range s.polls {
		pollIDs = append(pollIDs, pollID)
	}
	return pollIDs, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func choiceKey(sessionID, pollID string) string {
	return strings.TrimSpace(sessionID) + "/" + strings.TrimSpace(pollID)
}
