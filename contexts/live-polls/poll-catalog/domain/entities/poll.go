package entities

import "time"

// Poll is a question with a fixed, ordered set of options. Polls are created
// once and immutable afterwards; there is no edit or delete.
type Poll struct {
	PollID    string
	Title     string
	Options   []Option
	CreatedAt time.Time
}

type Option struct {
	OptionID string
	PollID   string
	Title    string
	Position int
}
