package api

import (
	"net/http"

	"github.com/vytor/studyflash/internal/logger"
)

// handleHealth is the liveness probe; it answers as long as the process runs.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady returns 200 once the snapshot database answers, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := s.DB.PingContext(ctx); err != nil {
		log.Warn("readiness check failed - database: %v", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status":   "unavailable",
			"database": err.Error(),
		})
		return
	}

	body := map[string]any{
		"status":   "ready",
		"learners": s.Sessions.Learners(),
	}
	if s.Jobs != nil {
		body["queued_ratings"] = s.Jobs.QueueSize()
	}
	writeJSON(w, r, http.StatusOK, body)
}
