package authority

import (
	"context"

	"github.com/vytor/studyflash/internal/models"
)

// ClientInterface is the review authority as seen by the study engine.
type ClientInterface interface {
	FetchCards(ctx context.Context, p FetchParams) ([]models.StudyCard, error)
	FetchDueCards(ctx context.Context, limit int) ([]models.StudyCard, error)
	SubmitRating(ctx context.Context, cardID string, rating models.Rating) error
	AdjustLevel(ctx context.Context, cardID string, dir Direction) (int, error)
	DeleteProgress(ctx context.Context, cardID string) error
}

var _ ClientInterface = (*Client)(nil)
