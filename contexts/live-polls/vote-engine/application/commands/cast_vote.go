package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	application "livepolls/contexts/live-polls/vote-engine/application"
	"livepolls/contexts/live-polls/vote-engine/domain/entities"
	domainerrors "livepolls/contexts/live-polls/vote-engine/domain/errors"
	"livepolls/contexts/live-polls/vote-engine/ports"
)

// CastVoteCommand is the write-model input for a single vote request.
type CastVoteCommand struct {
	SessionID string
	PollID    string
	OptionID  string
}

// CastVoteResult carries the final choice state, the outcome the transport
// layer maps to API semantics, and the absolute-score events that were
// broadcast for this request (in emission order).
type CastVoteResult struct {
	Outcome entities.VoteOutcome
	Choice  entities.Choice
	Deltas  []entities.ScoreDelta
}

// VoteUseCase is the vote coordinator. It is the sole writer of the registry
// and the ledger: registry mutation first, ledger mutation only once the
// registry change is confirmed, broadcast last. Registry conflicts from
// concurrent requests of the same session are retried once by re-reading the
// current choice; a second conflict surfaces as ErrVoteContention.
type VoteUseCase struct {
	Registry  ports.VoteRegistry
	Ledger    ports.ScoreLedger
	Directory ports.PollDirectory
	Publisher ports.DeltaPublisher
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// CastVote applies one (session, poll, option) vote request: first vote is
// recorded, a repeat of the current choice is a no-op duplicate, a different
// option replaces the prior choice and moves one count between options.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	sessionID := strings.TrimSpace(cmd.SessionID)
	pollID := strings.TrimSpace(cmd.PollID)
	optionID := strings.TrimSpace(cmd.OptionID)
	if sessionID == "" || pollID == "" || optionID == "" {
		logger.Warn("vote cast validation failed",
			"event", "vote_cast_validation_failed",
			"module", "live-polls/vote-engine",
			"layer", "application",
			"poll_id", pollID,
		)
		return CastVoteResult{}, domainerrors.ErrInvalidVoteInput
	}

	optionIDs, err := uc.Directory.ListOptionIDs(ctx, pollID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !lo.Contains(optionIDs, optionID) {
		logger.Warn("vote cast rejected for unknown option",
			"event", "vote_cast_option_unknown",
			"module", "live-polls/vote-engine",
			"layer", "application",
			"poll_id", pollID,
			"option_id", optionID,
		)
		return CastVoteResult{}, domainerrors.ErrOptionNotFound
	}

	// One retry on a registry race: re-read the current choice and fall into
	// the duplicate or change branch that the winning request created.
	for attempt := 0; attempt < 2; attempt++ {
		current, found, err := uc.Registry.GetChoice(ctx, sessionID, pollID)
		if err != nil {
			return CastVoteResult{}, err
		}

		switch {
		case !found:
			result, err := uc.recordFirstVote(ctx, sessionID, pollID, optionID)
			if errors.Is(err, domainerrors.ErrChoiceExists) {
				continue
			}
			return result, err

		case current.OptionID == optionID:
			logger.Info("vote cast rejected as duplicate",
				"event", "vote_cast_duplicate",
				"module", "live-polls/vote-engine",
				"layer", "application",
				"poll_id", pollID,
				"option_id", optionID,
			)
			return CastVoteResult{Outcome: entities.VoteDuplicate, Choice: current}, nil

		default:
			result, err := uc.changeVote(ctx, current, optionID)
			if errors.Is(err, domainerrors.ErrChoiceNotFound) {
				continue
			}
			return result, err
		}
	}

	logger.Warn("vote cast gave up after repeated registry conflicts",
		"event", "vote_cast_contention",
		"module", "live-polls/vote-engine",
		"layer", "application",
		"poll_id", pollID,
		"option_id", optionID,
	)
	return CastVoteResult{}, domainerrors.ErrVoteContention
}

func (uc VoteUseCase) recordFirstVote(ctx context.Context, sessionID, pollID, optionID string) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	choice := entities.Choice{
		VoteID:    voteID,
		SessionID: sessionID,
		PollID:    pollID,
		OptionID:  optionID,
		CreatedAt: uc.now(),
	}
	if err := uc.Registry.RecordChoice(ctx, choice); err != nil {
		return CastVoteResult{}, err
	}

	score, err := uc.Ledger.Increment(ctx, pollID, optionID, 1)
	if err != nil {
		// The registry already holds the choice the ledger never counted.
		// Roll it back; a failed rollback leaves drift for the reconciler.
		if rbErr := uc.Registry.DeleteChoice(ctx, sessionID, pollID, optionID); rbErr != nil {
			logger.Error("ledger and registry diverged on first vote",
				"event", "vote_cast_divergence",
				"module", "live-polls/vote-engine",
				"layer", "application",
				"poll_id", pollID,
				"option_id", optionID,
				"ledger_error", err.Error(),
				"rollback_error", rbErr.Error(),
			)
		}
		return CastVoteResult{}, err
	}

	delta := entities.ScoreDelta{PollID: pollID, OptionID: optionID, Votes: score}
	uc.publish(ctx, delta)
	logger.Info("vote accepted",
		"event", "vote_cast_accepted",
		"module", "live-polls/vote-engine",
		"layer", "application",
		"vote_id", choice.VoteID,
		"poll_id", pollID,
		"option_id", optionID,
		"votes", score,
	)
	return CastVoteResult{
		Outcome: entities.VoteAccepted,
		Choice:  choice,
		Deltas:  []entities.ScoreDelta{delta},
	}, nil
}

func (uc VoteUseCase) changeVote(ctx context.Context, current entities.Choice, optionID string) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	next := entities.Choice{
		VoteID:    voteID,
		SessionID: current.SessionID,
		PollID:    current.PollID,
		OptionID:  optionID,
		CreatedAt: uc.now(),
	}
	if err := uc.Registry.ReplaceChoice(ctx, current.SessionID, current.PollID, current.OptionID, next); err != nil {
		return CastVoteResult{}, err
	}

	oldScore, err := uc.Ledger.Increment(ctx, current.PollID, current.OptionID, -1)
	if err != nil {
		uc.rollbackReplace(ctx, next, current, err)
		return CastVoteResult{}, err
	}
	newScore, err := uc.Ledger.Increment(ctx, current.PollID, optionID, 1)
	if err != nil {
		if _, rbErr := uc.Ledger.Increment(ctx, current.PollID, current.OptionID, 1); rbErr != nil {
			logger.Error("ledger rollback failed after half-applied vote change",
				"event", "vote_cast_divergence",
				"module", "live-polls/vote-engine",
				"layer", "application",
				"poll_id", current.PollID,
				"option_id", current.OptionID,
				"ledger_error", err.Error(),
				"rollback_error", rbErr.Error(),
			)
		}
		uc.rollbackReplace(ctx, next, current, err)
		return CastVoteResult{}, err
	}

	oldDelta := entities.ScoreDelta{PollID: current.PollID, OptionID: current.OptionID, Votes: oldScore}
	newDelta := entities.ScoreDelta{PollID: current.PollID, OptionID: optionID, Votes: newScore}
	uc.publish(ctx, oldDelta)
	uc.publish(ctx, newDelta)
	logger.Info("vote changed",
		"event", "vote_cast_changed",
		"module", "live-polls/vote-engine",
		"layer", "application",
		"vote_id", next.VoteID,
		"poll_id", current.PollID,
		"old_option_id", current.OptionID,
		"option_id", optionID,
		"votes", newScore,
	)
	return CastVoteResult{
		Outcome: entities.VoteChanged,
		Choice:  next,
		Deltas:  []entities.ScoreDelta{oldDelta, newDelta},
	}, nil
}

// rollbackReplace restores the prior choice after a ledger failure mid-change.
func (uc VoteUseCase) rollbackReplace(ctx context.Context, applied, prior entities.Choice, cause error) {
	logger := application.ResolveLogger(uc.Logger)
	if rbErr := uc.Registry.ReplaceChoice(ctx, prior.SessionID, prior.PollID, applied.OptionID, prior); rbErr != nil {
		logger.Error("ledger and registry diverged on vote change",
			"event", "vote_cast_divergence",
			"module", "live-polls/vote-engine",
			"layer", "application",
			"poll_id", prior.PollID,
			"option_id", applied.OptionID,
			"ledger_error", cause.Error(),
			"rollback_error", rbErr.Error(),
		)
	}
}

func (uc VoteUseCase) publish(ctx context.Context, delta entities.ScoreDelta) {
	// Publisher is optional for pure write/test wiring, so nil is a no-op.
	if uc.Publisher == nil {
		return
	}
	uc.Publisher.Publish(ctx, delta.PollID, delta)
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
