package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CastVoteRequest struct {
	PollOptionID string `json:"pollOptionId" validate:"required"`
}

type CastVoteResponse struct {
	VoteID       string `json:"voteId"`
	PollID       string `json:"pollId"`
	PollOptionID string `json:"pollOptionId"`
	Status       string `json:"status"`
}

// ScoreEvent is the live-stream payload: the option's absolute score after
// a vote landed, never a relative delta.
type ScoreEvent struct {
	PollOptionID string `json:"pollOptionId"`
	Votes        int64  `json:"votes"`
}

type RankingEntryDTO struct {
	PollOptionID string `json:"pollOptionId"`
	Votes        int64  `json:"votes"`
	Rank         int    `json:"rank"`
}

type RankingsResponse struct {
	PollID   string            `json:"pollId"`
	Rankings []RankingEntryDTO `json:"rankings"`
}
