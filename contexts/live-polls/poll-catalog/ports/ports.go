package ports

import (
	"context"
	"time"

	"livepolls/contexts/live-polls/poll-catalog/domain/entities"
)

type PollRepository interface {
	SavePoll(ctx context.Context, poll entities.Poll) error
	GetPoll(ctx context.Context, pollID string) (entities.Poll, error)
	ListPollIDs(ctx context.Context) ([]string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
