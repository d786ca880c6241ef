package httpadapter

import (
	"context"
	"log/slog"

	"livepolls/contexts/live-polls/vote-engine/application/commands"
	"livepolls/contexts/live-polls/vote-engine/application/queries"
	"livepolls/contexts/live-polls/vote-engine/domain/entities"
	httptransport "livepolls/contexts/live-polls/vote-engine/transport/http"
)

type Handler struct {
	Votes   commands.VoteUseCase
	Tallies queries.TallyUseCase
	Logger  *slog.Logger
}

// CastVoteHandler runs the vote coordinator for one request. A duplicate
// outcome comes back as a result, not an error; the server layer decides the
// status code.
func (h Handler) CastVoteHandler(
	ctx context.Context,
	sessionID string,
	pollID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, entities.VoteOutcome, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		SessionID: sessionID,
		PollID:    pollID,
		OptionID:  req.PollOptionID,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, "", err
	}
	return httptransport.CastVoteResponse{
		VoteID:       result.Choice.VoteID,
		PollID:       result.Choice.PollID,
		PollOptionID: result.Choice.OptionID,
		Status:       string(result.Outcome),
	}, result.Outcome, nil
}

// TallyHandler returns the zero-filled per-option snapshot used both for the
// composed poll read and for stream catch-up.
func (h Handler) TallyHandler(ctx context.Context, pollID string) (map[string]int64, error) {
	return h.Tallies.Snapshot(ctx, pollID)
}

func (h Handler) RankingsHandler(ctx context.Context, pollID string) (httptransport.RankingsResponse, error) {
	scores, err := h.Tallies.Rankings(ctx, pollID)
	if err != nil {
		return httptransport.RankingsResponse{}, err
	}
	resp := httptransport.RankingsResponse{
		PollID:   pollID,
		Rankings: make([]httptransport.RankingEntryDTO, 0, len(scores)),
	}
	for rank, score := range scores {
		resp.Rankings = append(resp.Rankings, httptransport.RankingEntryDTO{
			PollOptionID: score.OptionID,
			Votes:        score.Votes,
			Rank:         rank + 1,
		})
	}
	return resp, nil
}
