package httpadapter

import (
	"context"
	"log/slog"

	"livepolls/contexts/live-polls/poll-catalog/application/commands"
	"livepolls/contexts/live-polls/poll-catalog/application/queries"
	httptransport "livepolls/contexts/live-polls/poll-catalog/transport/http"
)

type Handler struct {
	Commands commands.CreatePollUseCase
	Queries  queries.PollUseCase
	Logger   *slog.Logger
}

func (h Handler) CreatePollHandler(ctx context.Context, req httptransport.CreatePollRequest) (httptransport.CreatePollResponse, error) {
	poll, err := h.Commands.CreatePoll(ctx, commands.CreatePollCommand{
		Title:        req.Title,
		OptionTitles: req.Options,
	})
	if err != nil {
		return httptransport.CreatePollResponse{}, err
	}
	return httptransport.CreatePollResponse{PollID: poll.PollID}, nil
}

// GetPollHandler renders a poll with the per-option scores supplied by the
// caller. Options keep their stored position order.
func (h Handler) GetPollHandler(ctx context.Context, pollID string, scores map[string]int64) (httptransport.GetPollResponse, error) {
	poll, err := h.Queries.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.GetPollResponse{}, err
	}
	resp := httptransport.GetPollResponse{
		Poll: httptransport.PollDTO{
			ID:      poll.PollID,
			Title:   poll.Title,
			Options: make([]httptransport.PollOptionDTO, 0, len(poll.Options)),
		},
	}
	for _, option := range poll.Options {
		resp.Poll.Options = append(resp.Poll.Options, httptransport.PollOptionDTO{
			ID:    option.OptionID,
			Title: option.Title,
			Score: scores[option.OptionID],
		})
	}
	return resp, nil
}
