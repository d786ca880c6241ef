package queries

import (
	"context"
	"sort"
	"strings"

	"github.com/samber/lo"

	"livepolls/contexts/live-polls/vote-engine/domain/entities"
	"livepolls/contexts/live-polls/vote-engine/ports"
)

// TallyUseCase is the read side of the ledger: snapshots for catch-up before
// tailing the live stream, and ranked tallies for result views.
type TallyUseCase struct {
	Ledger    ports.ScoreLedger
	Directory ports.PollDirectory
}

// Snapshot returns the current score for every option of the poll. Options
// the ledger never touched are filled in at zero from the poll's option list.
func (uc TallyUseCase) Snapshot(ctx context.Context, pollID string) (map[string]int64, error) {
	pollID = strings.TrimSpace(pollID)
	optionIDs, err := uc.Directory.ListOptionIDs(ctx, pollID)
	if err != nil {
		return nil, err
	}
	scores, err := uc.Ledger.Snapshot(ctx, pollID)
	if err != nil {
		return nil, err
	}
	tally := make(map[string]int64, len(optionIDs))
	for _, optionID := range optionIDs {
		tally[optionID] = scores[optionID]
	}
	return tally, nil
}

// Rankings returns the snapshot ordered by score descending, ties broken by
// option id for a stable result.
func (uc TallyUseCase) Rankings(ctx context.Context, pollID string) ([]entities.OptionScore, error) {
	tally, err := uc.Snapshot(ctx, pollID)
	if err != nil {
		return nil, err
	}
	scores := lo.MapToSlice(tally, func(optionID string, votes int64) entities.OptionScore {
		return entities.OptionScore{OptionID: optionID, Votes: votes}
	})
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Votes == scores[j].Votes {
			return scores[i].OptionID < scores[j].OptionID
		}
		return scores[i].Votes > scores[j].Votes
	})
	return scores, nil
}
