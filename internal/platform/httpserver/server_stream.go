package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"livepolls/contexts/live-polls/vote-engine/domain/entities"
	votehttp "livepolls/contexts/live-polls/vote-engine/transport/http"
)

// handleStreamResults serves a poll's live score feed over server-sent
// events. The watcher is attached to the hub before the catch-up snapshot is
// read, so no vote can land unseen between snapshot and tail. Absolute-score
// events make the overlap harmless: a score delivered twice renders the same.
func (s *Server) handleStreamResults(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeVoteError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	pollID := r.PathValue("poll_id")
	sub := s.hub.Subscribe(pollID)
	defer sub.Close()

	snapshot, err := s.votes.Handler.TallyHandler(r.Context(), pollID)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	poll, err := s.catalog.Repository.GetPoll(r.Context(), pollID)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Catch-up: one event per option in poll order, then the live tail.
	for _, option := range poll.Options {
		writeScoreEvent(w, votehttp.ScoreEvent{
			PollOptionID: option.OptionID,
			Votes:        snapshot[option.OptionID],
		})
	}
	flusher.Flush()

	s.logger.Info("result stream attached",
		"event", "result_stream_attached",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"poll_id", pollID,
	)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("result stream detached",
				"event", "result_stream_detached",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"poll_id", pollID,
			)
			return
		case delta, open := <-sub.Events():
			if !open {
				return
			}
			writeScoreEvent(w, toScoreEvent(delta))
			flusher.Flush()
		}
	}
}

func toScoreEvent(delta entities.ScoreDelta) votehttp.ScoreEvent {
	return votehttp.ScoreEvent{
		PollOptionID: delta.OptionID,
		Votes:        delta.Votes,
	}
}

func writeScoreEvent(w http.ResponseWriter, event votehttp.ScoreEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
