package study

import (
	"github.com/vytor/studyflash/internal/models"
)

// RatingSink receives ratings without reporting back. Implementations must
// not block and must not fail the caller.
type RatingSink interface {
	SubmitRating(card models.StudyCard, rating models.Rating)
}

// Tracker is the cursor over the cards of one session. The index only moves
// forward, except through ResetSession.
type Tracker struct {
	cards []models.StudyCard
	index int
	sink  RatingSink
}

func NewTracker(cards []models.StudyCard, index int, sink RatingSink) *Tracker {
	if index < 0 {
		index = 0
	}
	return &Tracker{cards: append([]models.StudyCard(nil), cards...), index: index, sink: sink}
}

// RateCard hands the rating for the current card to the sink and advances,
// whatever becomes of the submission.
func (t *Tracker) RateCard(rating models.Rating) error {
	card, ok := t.Current()
	if !ok {
		return ErrNoCurrentCard
	}
	if t.sink != nil {
		t.sink.SubmitRating(card, rating)
	}
	t.index++
	return nil
}

// SkipCard advances without submitting anything.
func (t *Tracker) SkipCard() error {
	if _, ok := t.Current(); !ok {
		return ErrNoCurrentCard
	}
	t.index++
	return nil
}

// ResetSession rewinds to the first card; the cards are kept.
func (t *Tracker) ResetSession() {
	t.index = 0
}

func (t *Tracker) IsCompleted() bool {
	return len(t.cards) > 0 && t.index >= len(t.cards)
}

// Current returns the card under the cursor.
func (t *Tracker) Current() (models.StudyCard, bool) {
	if t.index >= len(t.cards) {
		return models.StudyCard{}, false
	}
	return t.cards[t.index], true
}

func (t *Tracker) Index() int { return t.index }

func (t *Tracker) Len() int { return len(t.cards) }

func (t *Tracker) Remaining() int {
	if n := len(t.cards) - t.index; n > 0 {
		return n
	}
	return 0
}

// Cards returns a copy of the session's cards.
func (t *Tracker) Cards() []models.StudyCard {
	out := make([]models.StudyCard, len(t.cards))
	copy(out, t.cards)
	return out
}

// Card looks a card up by id.
func (t *Tracker) Card(id string) (models.StudyCard, bool) {
	for _, c := range t.cards {
		if c.ID == id {
			return c, true
		}
	}
	return models.StudyCard{}, false
}

// SetActiveLevel replaces the active level of every card with the given id.
// It reports whether any card matched.
func (t *Tracker) SetActiveLevel(cardID string, level int) bool {
	found := false
	for i := range t.cards {
		if t.cards[i].ID == cardID {
			t.cards[i].ActiveLevel = level
			found = true
		}
	}
	return found
}
