package errors

import "errors"

var (
	ErrInvalidPollInput = errors.New("invalid poll input")
	ErrPollNotFound     = errors.New("poll not found")
	ErrPollExists       = errors.New("poll already exists")
	ErrStoreUnavailable = errors.New("poll store unavailable")
)
