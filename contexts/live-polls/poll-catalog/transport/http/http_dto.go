package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePollRequest struct {
	Title   string   `json:"title" validate:"required"`
	Options []string `json:"options" validate:"required,min=2,dive,required"`
}

type CreatePollResponse struct {
	PollID string `json:"pollId"`
}

type PollOptionDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Score int64  `json:"score"`
}

type PollDTO struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Options []PollOptionDTO `json:"options"`
}

type GetPollResponse struct {
	Poll PollDTO `json:"poll"`
}
