package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

// parseLimit reads the optional new-card limit. Clamping is left to the
// launcher; only unparsable input is rejected here.
func parseLimit(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.NewValidationError("limit", "must be a number")
	}
	return &v, nil
}

// resumeKeys turns ?deck=a&deck=b&review=true into session keys. No
// parameters means every key the learner has.
func resumeKeys(r *http.Request) []models.SessionKey {
	q := r.URL.Query()
	var keys []models.SessionKey
	for _, deckID := range q["deck"] {
		if deckID = strings.TrimSpace(deckID); deckID != "" {
			keys = append(keys, models.DeckKey(deckID))
		}
	}
	if review, _ := strconv.ParseBool(q.Get("review")); review {
		keys = append(keys, models.ReviewKey)
	}
	return keys
}
