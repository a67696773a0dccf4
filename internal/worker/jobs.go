package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

// RatingSubmitter is the part of the authority client a RatingJob needs.
type RatingSubmitter interface {
	SubmitRating(ctx context.Context, cardID string, rating models.Rating) error
}

// RatingJob forwards one rating to the review authority. Its outcome never
// reaches the session that produced it.
type RatingJob struct {
	Client  RatingSubmitter
	CardID  string
	Rating  models.Rating
	Timeout time.Duration
}

func (j *RatingJob) Name() string {
	return fmt.Sprintf("submit_rating:%s", j.CardID)
}

func (j *RatingJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"card_id": j.CardID,
		"rating":  j.Rating,
	})

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	if err := j.Client.SubmitRating(ctx, j.CardID, j.Rating); err != nil {
		return fmt.Errorf("submit rating for card %s: %w", j.CardID, err)
	}
	log.Debug("rating submitted")
	return nil
}
