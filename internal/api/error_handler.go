package api

import (
	stderrors "errors"
	"net/http"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/study"
)

// lifecycleError maps the study package's sentinel errors to AppErrors.
func lifecycleError(err error) (*errors.AppError, bool) {
	switch {
	case stderrors.Is(err, study.ErrSessionActive):
		return errors.NewConflictError("a study session is already in progress", err), true
	case stderrors.Is(err, study.ErrNotStudying):
		return errors.NewConflictError("no study session in progress", err), true
	case stderrors.Is(err, study.ErrNoCurrentCard):
		return errors.NewConflictError("no card left to review", err), true
	case stderrors.Is(err, study.ErrSuperseded):
		return errors.NewConflictError("the session was closed before cards arrived", err), true
	case stderrors.Is(err, study.ErrNoResumeCandidate), stderrors.Is(err, study.ErrCardNotInSession):
		return errors.NewNotFoundError(err), true
	}
	return nil, false
}

// upstream marks err as a failed call to the review authority unless it is
// a lifecycle error.
func upstream(operation string, err error) error {
	if _, ok := lifecycleError(err); ok {
		return err
	}
	return errors.NewUpstreamError(operation, err)
}

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	appErr, ok := errors.As(err)
	if !ok {
		appErr, ok = lifecycleError(err)
	}
	if !ok {
		appErr = errors.NewInternalError(err)
	}

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	writeJSON(w, r, appErr.Status, map[string]any{
		"error": map[string]any{
			"code":      appErr.Code,
			"message":   appErr.Message,
			"retryable": appErr.Retryable,
		},
	})
}
