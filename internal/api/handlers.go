package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/study"
)

// Pinger is satisfied by *sql.DB and *db.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// QueueReporter is satisfied by *worker.Pool.
type QueueReporter interface {
	QueueSize() int
}

type Server struct {
	Sessions *study.Manager
	DB       Pinger
	Jobs     QueueReporter
}

func (s *Server) orchestrator(r *http.Request) *study.Orchestrator {
	return s.Sessions.For(learnerFromContext(r.Context()))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.orchestrator(r).View())
}

// handleResumeCandidate recomputes the resume offer, as on dashboard mount.
func (s *Server) handleResumeCandidate(w http.ResponseWriter, r *http.Request) {
	keys := resumeKeys(r)
	logger.FromContext(r.Context()).Debug("refreshing resume candidate over %d keys", len(keys))
	writeJSON(w, r, http.StatusOK, s.orchestrator(r).RefreshResume(r.Context(), keys...))
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	v, err := s.orchestrator(r).ResumeLastSession(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("session resumed: key=%s index=%d", v.Key, v.CurrentIndex)
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleDiscardResume(w http.ResponseWriter, r *http.Request) {
	v, err := s.orchestrator(r).DiscardResume(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleStartDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	deckID := strings.TrimSpace(chi.URLParam(r, "deckID"))
	if deckID == "" {
		handleError(w, r, errors.NewBadRequestError("deck ID required"))
		return
	}

	mode, err := models.ParseStudyMode(r.FormValue("mode"))
	if err != nil {
		log.Warn("invalid study mode: %s", r.FormValue("mode"))
		handleError(w, r, errors.NewValidationError("mode", err.Error()))
		return
	}
	limit, err := parseLimit(r.FormValue("limit"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.WithFields(map[string]any{"deck_id": deckID, "mode": mode}).Debug("starting deck study")
	v, err := s.orchestrator(r).StartDeckStudy(r.Context(), deckID, mode, limit)
	if err != nil {
		handleError(w, r, upstream("loading cards", err))
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleRestartDeck(w http.ResponseWriter, r *http.Request) {
	deckID := strings.TrimSpace(chi.URLParam(r, "deckID"))
	if deckID == "" {
		handleError(w, r, errors.NewBadRequestError("deck ID required"))
		return
	}
	v, err := s.orchestrator(r).RestartDeckSession(r.Context(), deckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	v, err := s.orchestrator(r).StartReviewStudy(r.Context())
	if err != nil {
		handleError(w, r, upstream("loading due cards", err))
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	rating, err := models.ParseRating(r.FormValue("rating"))
	if err != nil {
		log.Warn("invalid rating value: %s", r.FormValue("rating"))
		handleError(w, r, errors.NewValidationError("rating", err.Error()))
		return
	}

	v, err := s.orchestrator(r).RateCard(r.Context(), rating)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if v.IsCompleted {
		log.Info("session completed: key=%s cards=%d", v.Key, len(v.Cards))
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	v, err := s.orchestrator(r).SkipCard(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleLevelUp(w http.ResponseWriter, r *http.Request) {
	s.handleLevel(w, r, "changing the card level", s.orchestrator(r).LevelUp)
}

func (s *Server) handleLevelDown(w http.ResponseWriter, r *http.Request) {
	s.handleLevel(w, r, "changing the card level", s.orchestrator(r).LevelDown)
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request, op string, adjust func(context.Context, string) (study.View, error)) {
	cardID := strings.TrimSpace(chi.URLParam(r, "cardID"))
	if cardID == "" {
		handleError(w, r, errors.NewBadRequestError("card ID required"))
		return
	}
	v, err := adjust(r.Context(), cardID)
	if err != nil {
		handleError(w, r, upstream(op, err))
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleRemoveProgress(w http.ResponseWriter, r *http.Request) {
	v, err := s.orchestrator(r).RemoveFromProgress(r.Context())
	if err != nil {
		handleError(w, r, upstream("removing the card from progress", err))
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	v, err := s.orchestrator(r).CloseSession(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}
