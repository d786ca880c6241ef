package catalogadapter

import (
	"context"
	"errors"

	"github.com/samber/lo"

	"livepolls/contexts/live-polls/poll-catalog/domain/entities"
	catalogerrors "livepolls/contexts/live-polls/poll-catalog/domain/errors"
	catalogports "livepolls/contexts/live-polls/poll-catalog/ports"
	domainerrors "livepolls/contexts/live-polls/vote-engine/domain/errors"
)

// Directory answers poll-membership questions for the vote engine by reading
// the catalog repository and translating its errors into engine sentinels.
type Directory struct {
	Polls catalogports.PollRepository
}

func NewDirectory(polls catalogports.PollRepository) Directory {
	return Directory{Polls: polls}
}

func (d Directory) ListOptionIDs(ctx context.Context, pollID string) ([]string, error) {
	poll, err := d.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return nil, translate(err)
	}
	return lo.Map(poll.Options, func(option entities.Option, _ int) string {
		return option.OptionID
	}), nil
}

func (d Directory) ListPollIDs(ctx context.Context) ([]string, error) {
	pollIDs, err := d.Polls.ListPollIDs(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return pollIDs, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, catalogerrors.ErrPollNotFound):
		return domainerrors.ErrPollNotFound
	case errors.Is(err, catalogerrors.ErrStoreUnavailable):
		return domainerrors.ErrStoreUnavailable
	default:
		return err
	}
}
