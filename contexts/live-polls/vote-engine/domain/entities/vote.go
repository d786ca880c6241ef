package entities

import "time"

// Choice is a session's current pick on a poll. At most one live Choice
// exists per (SessionID, PollID); a change of vote replaces the record
// under a fresh VoteID instead of mutating it.
type Choice struct {
	VoteID    string
	SessionID string
	PollID    string
	OptionID  string
	CreatedAt time.Time
}

type VoteOutcome string

const (
	VoteAccepted  VoteOutcome = "accepted"
	VoteDuplicate VoteOutcome = "duplicate"
	VoteChanged   VoteOutcome = "changed"
)

// ScoreDelta announces an option's new absolute score after a vote landed.
// Carrying the absolute value keeps redelivery idempotent for watchers.
type ScoreDelta struct {
	PollID   string
	OptionID string
	Votes    int64
}

type OptionScore struct {
	OptionID string
	Votes    int64
}
