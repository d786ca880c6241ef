package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	pollcatalog "livepolls/contexts/live-polls/poll-catalog"
	catalogerrors "livepolls/contexts/live-polls/poll-catalog/domain/errors"
	cataloghttp "livepolls/contexts/live-polls/poll-catalog/transport/http"
	voteengine "livepolls/contexts/live-polls/vote-engine"
	"livepolls/contexts/live-polls/vote-engine/domain/entities"
	voteerrors "livepolls/contexts/live-polls/vote-engine/domain/errors"
	votehttp "livepolls/contexts/live-polls/vote-engine/transport/http"
	"livepolls/internal/platform/messaging"
)

const (
	sessionCookieName   = "sessionId"
	sessionCookieMaxAge = 30 * 24 * int(time.Hour/time.Second)

	duplicateVoteMessage = "You already voted on this poll."
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	catalog  pollcatalog.Module
	votes    voteengine.Module
	hub      *messaging.Hub
	validate *validator.Validate
}

func New(
	catalog pollcatalog.Module,
	votes voteengine.Module,
	hub *messaging.Hub,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		catalog:  catalog,
		votes:    votes,
		hub:      hub,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.registerRoutes()
	return s
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{Addr: s.addr, Handler: s.mux}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting",
			"event", "http_server_starting",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"addr", s.addr,
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return server.Shutdown(shutdownCtx)
}

// Handler exposes the mux for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /polls", s.handleCreatePoll)
	s.mux.HandleFunc("GET /polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("POST /polls/{poll_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /polls/{poll_id}/results", s.handleStreamResults)
	s.mux.HandleFunc("GET /polls/{poll_id}/rankings", s.handleRankings)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req cataloghttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCatalogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeCatalogError(w, http.StatusBadRequest, "invalid_poll", "title and at least two options are required")
		return
	}

	resp, err := s.catalog.Handler.CreatePollHandler(r.Context(), req)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleGetPoll composes the catalog read with the live ledger snapshot so
// every option carries its current score.
func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("poll_id")

	scores, err := s.votes.Handler.TallyHandler(r.Context(), pollID)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	resp, err := s.catalog.Handler.GetPollHandler(r.Context(), pollID, scores)
	if err != nil {
		writeCatalogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req votehttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVoteError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeVoteError(w, http.StatusBadRequest, "invalid_vote", "pollOptionId is required")
		return
	}

	sessionID := s.resolveSession(w, r)
	pollID := r.PathValue("poll_id")

	resp, outcome, err := s.votes.Handler.CastVoteHandler(r.Context(), sessionID, pollID, req)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	if outcome == entities.VoteDuplicate {
		writeVoteError(w, http.StatusBadRequest, "duplicate_vote", duplicateVoteMessage)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("poll_id")
	resp, err := s.votes.Handler.RankingsHandler(r.Context(), pollID)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveSession returns the caller's voting identity, minting a new cookie
// when the request carries none.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	sessionID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}

func writeCatalogDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogerrors.ErrInvalidPollInput):
		writeCatalogError(w, http.StatusBadRequest, "invalid_poll", "title and at least two options are required")
	case errors.Is(err, catalogerrors.ErrPollNotFound):
		writeCatalogError(w, http.StatusNotFound, "poll_not_found", "poll not found")
	case errors.Is(err, catalogerrors.ErrPollExists):
		writeCatalogError(w, http.StatusConflict, "poll_exists", "poll already exists")
	case errors.Is(err, catalogerrors.ErrStoreUnavailable):
		writeCatalogError(w, http.StatusServiceUnavailable, "store_unavailable", "storage is temporarily unavailable")
	default:
		writeCatalogError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVoteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, voteerrors.ErrInvalidVoteInput):
		writeVoteError(w, http.StatusBadRequest, "invalid_vote", "pollOptionId is required")
	case errors.Is(err, voteerrors.ErrOptionNotFound):
		writeVoteError(w, http.StatusBadRequest, "option_not_found", "option does not belong to this poll")
	case errors.Is(err, voteerrors.ErrPollNotFound):
		writeVoteError(w, http.StatusNotFound, "poll_not_found", "poll not found")
	case errors.Is(err, voteerrors.ErrVoteContention):
		writeVoteError(w, http.StatusConflict, "vote_contention", "vote lost a concurrent update, retry")
	case errors.Is(err, voteerrors.ErrStoreUnavailable):
		writeVoteError(w, http.StatusServiceUnavailable, "store_unavailable", "storage is temporarily unavailable")
	default:
		writeVoteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCatalogError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, cataloghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeVoteError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
