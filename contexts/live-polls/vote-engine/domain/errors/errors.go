package errors

import "errors"

var (
	ErrInvalidVoteInput = errors.New("invalid vote input")
	ErrPollNotFound     = errors.New("poll not found")
	ErrOptionNotFound   = errors.New("poll option not found")
	ErrChoiceExists     = errors.New("a live choice already exists for this session and poll")
	ErrChoiceNotFound   = errors.New("expected prior choice not found")
	ErrVoteContention   = errors.New("vote lost a concurrent update race; retry the request")
	ErrStoreUnavailable = errors.New("vote store unavailable")
)
