package study

import (
	"context"
	"fmt"
	"time"

	"github.com/vytor/studyflash/internal/authority"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/worker"
)

// Dispatcher runs jobs in the background. worker.Pool satisfies it.
type Dispatcher interface {
	Submit(job worker.Job) error
}

// LevelSync talks to the review authority about one card at a time: mastery
// level changes, progress removal and rating submission.
type LevelSync struct {
	client  authority.ClientInterface
	jobs    Dispatcher
	timeout time.Duration
	log     *logger.Logger
}

func NewLevelSync(client authority.ClientInterface, jobs Dispatcher, timeout time.Duration) *LevelSync {
	return &LevelSync{
		client:  client,
		jobs:    jobs,
		timeout: timeout,
		log:     logger.Default().WithPrefix("level_sync"),
	}
}

// SubmitRating queues the rating and returns at once. A full queue or a
// failed submission is logged and otherwise ignored.
func (g *LevelSync) SubmitRating(card models.StudyCard, rating models.Rating) {
	job := &worker.RatingJob{
		Client:  g.client,
		CardID:  card.ID,
		Rating:  rating,
		Timeout: g.timeout,
	}
	if err := g.jobs.Submit(job); err != nil {
		g.log.WithField("card_id", card.ID).Warn("dropping rating %s: %v", rating, err)
	}
}

// LevelUp asks the authority to raise the card's level and returns the level
// it now reports.
func (g *LevelSync) LevelUp(ctx context.Context, card models.StudyCard) (int, error) {
	return g.adjust(ctx, card, authority.LevelUp)
}

// LevelDown is LevelUp in the other direction.
func (g *LevelSync) LevelDown(ctx context.Context, card models.StudyCard) (int, error) {
	return g.adjust(ctx, card, authority.LevelDown)
}

func (g *LevelSync) adjust(ctx context.Context, card models.StudyCard, dir authority.Direction) (int, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	level, err := g.client.AdjustLevel(ctx, card.ID, dir)
	if err != nil {
		return 0, err
	}
	if level < 0 {
		return 0, fmt.Errorf("authority reported negative level %d for card %s", level, card.ID)
	}
	card.ActiveLevel = level
	if _, ok := card.CurrentLevel(); !ok && len(card.Levels) > 0 {
		logger.FromContext(ctx).WithPrefix("level_sync").Warn("authority reported level %d for card %s with %d levels", level, card.ID, len(card.Levels))
	}
	return level, nil
}

// RemoveProgress deletes the stored progress of the card.
func (g *LevelSync) RemoveProgress(ctx context.Context, card models.StudyCard) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	return g.client.DeleteProgress(ctx, card.ID)
}

func (g *LevelSync) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}
