package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"livepolls/contexts/live-polls/vote-engine/adapters/memory"
	"livepolls/contexts/live-polls/vote-engine/application/commands"
	"livepolls/contexts/live-polls/vote-engine/domain/entities"
	domainerrors "livepolls/contexts/live-polls/vote-engine/domain/errors"
	"livepolls/contexts/live-polls/vote-engine/ports"
)

type recordingPublisher struct {
	mu     sync.Mutex
	deltas []entities.ScoreDelta
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, delta entities.ScoreDelta) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deltas = append(p.deltas, delta)
}

func (p *recordingPublisher) events() []entities.ScoreDelta {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entities.ScoreDelta(nil), p.deltas...)
}

func newVoteFixture(t *testing.T) (commands.VoteUseCase, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.NewStore()
	store.SetPollOptions("poll-lang", []string{"opt-go", "opt-rust"})
	publisher := &recordingPublisher{}
	uc := commands.VoteUseCase{
		Registry:  store,
		Ledger:    store,
		Directory: store,
		Publisher: publisher,
		Clock:     store,
		IDGen:     store,
	}
	return uc, store, publisher
}

func TestCastVoteAcceptsFirstVote(t *testing.T) {
	uc, store, publisher := newVoteFixture(t)
	ctx := context.Background()

	result, err := uc.CastVote(ctx, commands.CastVoteCommand{
		SessionID: "session-a",
		PollID:    "poll-lang",
		OptionID:  "opt-go",
	})
	if err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if result.Outcome != entities.VoteAccepted {
		t.Fatalf("expected accepted outcome, got %s", result.Outcome)
	}
	if result.Choice.VoteID == "" {
		t.Fatalf("expected a vote id on the recorded choice")
	}

	scores, err := store.Snapshot(ctx, "poll-lang")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if scores["opt-go"] != 1 {
		t.Fatalf("expected opt-go score 1, got %d", scores["opt-go"])
	}

	events := publisher.events()
	if len(events) != 1 {
		t.Fatalf("expected one broadcast event, got %d", len(events))
	}
	if events[0].OptionID != "opt-go" || events[0].Votes != 1 {
		t.Fatalf("unexpected broadcast event: %+v", events[0])
	}
}

func TestCastVoteRejectsRepeatOfCurrentChoice(t *testing.T) {
	uc, store, publisher := newVoteFixture(t)
	ctx := context.Background()
	cmd := commands.CastVoteCommand{
		SessionID: "session-a",
		PollID:    "poll-lang",
		OptionID:  "opt-go",
	}

	if _, err := uc.CastVote(ctx, cmd); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	result, err := uc.CastVote(ctx, cmd)
	if err != nil {
		t.Fatalf("duplicate vote returned error: %v", err)
	}
	if result.Outcome != entities.VoteDuplicate {
		t.Fatalf("expected duplicate outcome, got %s", result.Outcome)
	}

	scores, err := store.Snapshot(ctx, "poll-lang")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if scores["opt-go"] != 1 {
		t.Fatalf("duplicate vote must not change the score, got %d", scores["opt-go"])
	}
	if len(publisher.events()) != 1 {
		t.Fatalf("duplicate vote must not broadcast, got %d events", len(publisher.events()))
	}
}

// Session A votes Go, session B votes Rust, then A changes to Rust: Go drops
// back to zero and Rust ends at two, with every broadcast carrying the
// option's absolute score at that moment.
func TestCastVoteChangeMovesOneCountBetweenOptions(t *testing.T) {
	uc, store, publisher := newVoteFixture(t)
	ctx := context.Background()

	if _, err := uc.CastVote(ctx, commands.CastVoteCommand{SessionID: "session-a", PollID: "poll-lang", OptionID: "opt-go"}); err != nil {
		t.Fatalf("session a vote failed: %v", err)
	}
	if _, err := uc.CastVote(ctx, commands.CastVoteCommand{SessionID: "session-b", PollID: "poll-lang", OptionID: "opt-rust"}); err != nil {
		t.Fatalf("session b vote failed: %v", err)
	}

	result, err := uc.CastVote(ctx, commands.CastVoteCommand{SessionID: "session-a", PollID: "poll-lang", OptionID: "opt-rust"})
	if err != nil {
		t.Fatalf("vote change failed: %v", err)
	}
	if result.Outcome != entities.VoteChanged {
		t.Fatalf("expected changed outcome, got %s", result.Outcome)
	}

	scores, err := store.Snapshot(ctx, "poll-lang")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if scores["opt-go"] != 0 || scores["opt-rust"] != 2 {
		t.Fatalf("expected go=0 rust=2, got go=%d rust=%d", scores["opt-go"], scores["opt-rust"])
	}

	events := publisher.events()
	if len(events) != 4 {
		t.Fatalf("expected four broadcast events, got %d", len(events))
	}
	last := events[len(events)-1]
	prev := events[len(events)-2]
	if prev.OptionID != "opt-go" || prev.Votes != 0 {
		t.Fatalf("expected decrement event for opt-go at 0, got %+v", prev)
	}
	if last.OptionID != "opt-rust" || last.Votes != 2 {
		t.Fatalf("expected increment event for opt-rust at 2, got %+v", last)
	}
}

func TestCastVoteRejectsUnknownOption(t *testing.T) {
	uc, _, _ := newVoteFixture(t)

	_, err := uc.CastVote(context.Background(), commands.CastVoteCommand{
		SessionID: "session-a",
		PollID:    "poll-lang",
		OptionID:  "opt-python",
	})
	if !errors.Is(err, domainerrors.ErrOptionNotFound) {
		t.Fatalf("expected option not found, got %v", err)
	}
}

func TestCastVoteRejectsUnknownPoll(t *testing.T) {
	uc, _, _ := newVoteFixture(t)

	_, err := uc.CastVote(context.Background(), commands.CastVoteCommand{
		SessionID: "session-a",
		PollID:    "poll-missing",
		OptionID:  "opt-go",
	})
	if !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected poll not found, got %v", err)
	}
}

func TestCastVoteRejectsBlankInput(t *testing.T) {
	uc, _, _ := newVoteFixture(t)

	_, err := uc.CastVote(context.Background(), commands.CastVoteCommand{
		SessionID: "session-a",
		PollID:    "poll-lang",
		OptionID:  "   ",
	})
	if !errors.Is(err, domainerrors.ErrInvalidVoteInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

// contentiousRegistry reports no current choice but rejects every insert, the
// shape of a race that never settles.
type contentiousRegistry struct {
	ports.VoteRegistry
}

func (contentiousRegistry) GetChoice(context.Context, string, string) (entities.Choice, bool, error) {
	return entities.Choice{}, false, nil
}

func (contentiousRegistry) RecordChoice(context.Context, entities.Choice) error {
	return domainerrors.ErrChoiceExists
}

func TestCastVoteGivesUpAfterRepeatedRegistryConflicts(t *testing.T) {
	_, store, publisher := newVoteFixture(t)
	uc := commands.VoteUseCase{
		Registry:  contentiousRegistry{},
		Ledger:    store,
		Directory: store,
		Publisher: publisher,
		Clock:     store,
		IDGen:     store,
	}

	_, err := uc.CastVote(context.Background(), commands.CastVoteCommand{
		SessionID: "session-a",
		PollID:    "poll-lang",
		OptionID:  "opt-go",
	})
	if !errors.Is(err, domainerrors.ErrVoteContention) {
		t.Fatalf("expected contention error, got %v", err)
	}
	if len(publisher.events()) != 0 {
		t.Fatalf("contention must not broadcast, got %d events", len(publisher.events()))
	}
}

// failingLedger refuses every increment after the first n successes.
type failingLedger struct {
	inner     ports.ScoreLedger
	mu        sync.Mutex
	successes int
}

func (l *failingLedger) Increment(ctx context.Context, pollID string, optionID string, delta int64) (int64, error) {
	l.mu.Lock()
	allowed := l.successes > 0
	if allowed {
		l.successes--
	}
	l.mu.Unlock()
	if !allowed {
		return 0, domainerrors.ErrStoreUnavailable
	}
	return l.inner.Increment(ctx, pollID, optionID, delta)
}

func (l *failingLedger) Snapshot(ctx context.Context, pollID string) (map[string]int64, error) {
	return l.inner.Snapshot(ctx, pollID)
}

func TestCastVoteRollsBackRegistryWhenLedgerFails(t *testing.T) {
	_, store, publisher := newVoteFixture(t)
	uc := commands.VoteUseCase{
		Registry:  store,
		Ledger:    &failingLedger{inner: store},
		Directory: store,
		Publisher: publisher,
		Clock:     store,
		IDGen:     store,
	}
	ctx := context.Background()

	_, err := uc.CastVote(ctx, commands.CastVoteCommand{
		SessionID: "session-a",
		PollID:    "poll-lang",
		OptionID:  "opt-go",
	})
	if !errors.Is(err, domainerrors.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}

	_, found, err := store.GetChoice(ctx, "session-a", "poll-lang")
	if err != nil {
		t.Fatalf("get choice failed: %v", err)
	}
	if found {
		t.Fatalf("expected registry rollback after ledger failure")
	}
	if len(publisher.events()) != 0 {
		t.Fatalf("failed vote must not broadcast, got %d events", len(publisher.events()))
	}
}

func TestCastVoteRestoresPriorChoiceWhenChangeHalfFails(t *testing.T) {
	_, store, publisher := newVoteFixture(t)
	ctx := context.Background()

	seedUC := commands.VoteUseCase{
		Registry:  store,
		Ledger:    store,
		Directory: store,
		Publisher: publisher,
		Clock:     store,
		IDGen:     store,
	}
	if _, err := seedUC.CastVote(ctx, commands.CastVoteCommand{SessionID: "session-a", PollID: "poll-lang", OptionID: "opt-go"}); err != nil {
		t.Fatalf("seed vote failed: %v", err)
	}

	// The change decrements opt-go, then fails incrementing opt-rust. Both
	// the registry and the ledger must come back to the pre-change state.
	uc := seedUC
	uc.Ledger = &failingLedger{inner: store, successes: 1}

	_, err := uc.CastVote(ctx, commands.CastVoteCommand{SessionID: "session-a", PollID: "poll-lang", OptionID: "opt-rust"})
	if !errors.Is(err, domainerrors.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}

	choice, found, err := store.GetChoice(ctx, "session-a", "poll-lang")
	if err != nil || !found {
		t.Fatalf("expected prior choice restored, found=%v err=%v", found, err)
	}
	if choice.OptionID != "opt-go" {
		t.Fatalf("expected restored choice opt-go, got %s", choice.OptionID)
	}

	scores, err := store.Snapshot(ctx, "poll-lang")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if scores["opt-go"] != 1 || scores["opt-rust"] != 0 {
		t.Fatalf("expected go=1 rust=0 after rollback, got go=%d rust=%d", scores["opt-go"], scores["opt-rust"])
	}
}

func TestCastVoteConcurrentSessionsAllCount(t *testing.T) {
	uc, store, _ := newVoteFixture(t)
	ctx := context.Background()

	const voters = 32
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			option := "opt-go"
			if n%2 == 1 {
				option = "opt-rust"
			}
			_, err := uc.CastVote(ctx, commands.CastVoteCommand{
				SessionID: sessionName(n),
				PollID:    "poll-lang",
				OptionID:  option,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent vote failed: %v", err)
		}
	}

	scores, err := store.Snapshot(ctx, "poll-lang")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if scores["opt-go"]+scores["opt-rust"] != voters {
		t.Fatalf("expected %d total votes, got %d", voters, scores["opt-go"]+scores["opt-rust"])
	}
}

func sessionName(n int) string {
	return "session-" + string(rune('a'+n%26)) + "-" + string(rune('0'+n/26))
}
