package queries

import (
	"context"
	"strings"

	"livepolls/contexts/live-polls/poll-catalog/domain/entities"
	domainerrors "livepolls/contexts/live-polls/poll-catalog/domain/errors"
	"livepolls/contexts/live-polls/poll-catalog/ports"
)

type PollUseCase struct {
	Polls ports.PollRepository
}

func (uc PollUseCase) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Poll{}, domainerrors.ErrInvalidPollInput
	}
	return uc.Polls.GetPoll(ctx, pollID)
}
