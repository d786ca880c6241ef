package workers

import (
	"context"
	"log/slog"

	application "livepolls/contexts/live-polls/vote-engine/application"
	"livepolls/contexts/live-polls/vote-engine/ports"
)

// LedgerReconciler repairs drift between the vote registry and the score
// ledger, the out-of-band path for votes whose compensating rollback failed.
// The registry is the source of truth: counters are corrected toward the
// per-option counts of live choice records.
type LedgerReconciler struct {
	Registry  ports.VoteRegistry
	Ledger    ports.ScoreLedger
	Directory ports.PollDirectory
	Logger    *slog.Logger
}

// RunOnce reconciles every known poll and stops on the first failure so the
// retry loop can reprocess remaining polls safely.
func (r LedgerReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	pollIDs, err := r.Directory.ListPollIDs(ctx)
	if err != nil {
		logger.Error("ledger reconcile poll listing failed",
			"event", "ledger_reconcile_list_failed",
			"module", "live-polls/vote-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	repaired := 0
	for _, pollID := range pollIDs {
		fixed, err := r.reconcilePoll(ctx, pollID)
		if err != nil {
			return err
		}
		repaired += fixed
	}
	if repaired > 0 {
		logger.Info("ledger reconcile cycle repaired drift",
			"event", "ledger_reconcile_repaired",
			"module", "live-polls/vote-engine",
			"layer", "worker",
			"polls", len(pollIDs),
			"repaired_counters", repaired,
		)
	}
	return nil
}

func (r LedgerReconciler) reconcilePoll(ctx context.Context, pollID string) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	counts, err := r.Registry.CountByOption(ctx, pollID)
	if err != nil {
		return 0, err
	}
	scores, err := r.Ledger.Snapshot(ctx, pollID)
	if err != nil {
		return 0, err
	}

	optionIDs := make(map[string]struct{}, len(counts)+len(scores))
	for optionID := range counts {
		optionIDs[optionID] = struct{}{}
	}
	for optionID := range scores {
		optionIDs[optionID] = struct{}{}
	}

	repaired := 0
	for optionID := range optionIDs {
		diff := counts[optionID] - scores[optionID]
		if diff == 0 {
			continue
		}
		if _, err := r.Ledger.Increment(ctx, pollID, optionID, diff); err != nil {
			return repaired, err
		}
		repaired++
		logger.Warn("ledger counter drift repaired",
			"event", "ledger_reconcile_counter_fixed",
			"module", "live-polls/vote-engine",
			"layer", "worker",
			"poll_id", pollID,
			"option_id", optionID,
			"drift", diff,
		)
	}
	return repaired, nil
}
