package catalogadapter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"livepolls/contexts/live-polls/poll-catalog/adapters/memory"
	"livepolls/contexts/live-polls/poll-catalog/domain/entities"
	catalogadapter "livepolls/contexts/live-polls/vote-engine/adapters/catalog"
	domainerrors "livepolls/contexts/live-polls/vote-engine/domain/errors"
)

func TestDirectoryListsOptionsInPollOrder(t *testing.T) {
	store := memory.NewStore([]entities.Poll{{
		PollID:    "poll-1",
		Title:     "Best Language",
		CreatedAt: time.Now(),
		Options: []entities.Option{
			{OptionID: "opt-go", PollID: "poll-1", Title: "Go", Position: 0},
			{OptionID: "opt-rust", PollID: "poll-1", Title: "Rust", Position: 1},
		},
	}})
	directory := catalogadapter.NewDirectory(store)

	optionIDs, err := directory.ListOptionIDs(context.Background(), "poll-1")
	if err != nil {
		t.Fatalf("list options failed: %v", err)
	}
	if len(optionIDs) != 2 || optionIDs[0] != "opt-go" || optionIDs[1] != "opt-rust" {
		t.Fatalf("unexpected option ids: %v", optionIDs)
	}
}

func TestDirectoryTranslatesMissingPoll(t *testing.T) {
	directory := catalogadapter.NewDirectory(memory.NewStore(nil))

	_, err := directory.ListOptionIDs(context.Background(), "poll-missing")
	if !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected engine poll-not-found sentinel, got %v", err)
	}
}
