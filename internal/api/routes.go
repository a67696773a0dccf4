package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(learnerMiddleware)

		r.Get("/study", s.handleView)
		r.Get("/study/resume", s.handleResumeCandidate)
		r.Post("/study/resume", s.handleResume)
		r.Delete("/study/resume", s.handleDiscardResume)
		r.Post("/study/review", s.handleStartReview)
		r.Post("/study/rate", s.handleRate)
		r.Post("/study/skip", s.handleSkip)
		r.Post("/study/cards/{cardID}/level-up", s.handleLevelUp)
		r.Post("/study/cards/{cardID}/level-down", s.handleLevelDown)
		r.Post("/study/remove-progress", s.handleRemoveProgress)
		r.Post("/study/close", s.handleClose)

		r.Post("/decks/{deckID}/study", s.handleStartDeck)
		r.Post("/decks/{deckID}/restart", s.handleRestartDeck)
	})
	return r
}
