package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "livepolls/contexts/live-polls/poll-catalog/application"
	"livepolls/contexts/live-polls/poll-catalog/domain/entities"
	domainerrors "livepolls/contexts/live-polls/poll-catalog/domain/errors"
	"livepolls/contexts/live-polls/poll-catalog/ports"
)

type CreatePollCommand struct {
	Title        string
	OptionTitles []string
}

// CreatePollUseCase creates an immutable poll with its option set. A poll
// needs at least two options to be worth voting on.
type CreatePollUseCase struct {
	Polls  ports.PollRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc CreatePollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)
	title := strings.TrimSpace(cmd.Title)
	optionTitles := make([]string, 0, len(cmd.OptionTitles))
	for _, optionTitle := range cmd.OptionTitles {
		if trimmed := strings.TrimSpace(optionTitle); trimmed != "" {
			optionTitles = append(optionTitles, trimmed)
		}
	}
	if title == "" || len(optionTitles) < 2 {
		logger.Warn("poll create validation failed",
			"event", "poll_create_validation_failed",
			"module", "live-polls/poll-catalog",
			"layer", "application",
			"option_count", len(optionTitles),
		)
		return entities.Poll{}, domainerrors.ErrInvalidPollInput
	}

	pollID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Poll{}, err
	}
	poll := entities.Poll{
		PollID:    pollID,
		Title:     title,
		CreatedAt: uc.now(),
		Options:   make([]entities.Option, 0, len(optionTitles)),
	}
	for position, optionTitle := range optionTitles {
		optionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Poll{}, err
		}
		poll.Options = append(poll.Options, entities.Option{
			OptionID: optionID,
			PollID:   pollID,
			Title:    optionTitle,
			Position: position,
		})
	}

	if err := uc.Polls.SavePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}
	logger.Info("poll created",
		"event", "poll_created",
		"module", "live-polls/poll-catalog",
		"layer", "application",
		"poll_id", poll.PollID,
		"option_count", len(poll.Options),
	)
	return poll, nil
}

func (uc CreatePollUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
