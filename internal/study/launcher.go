package study

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vytor/studyflash/internal/authority"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

const (
	DefaultNewCardLimit = 20
	MinNewCardLimit     = 1
	MaxNewCardLimit     = 200
	DefaultReviewBatch  = 20

	seedModulus = 1_000_000_000
)

// Session is the in-memory form of a study session as handed to the tracker.
type Session struct {
	Key          models.SessionKey
	Kind         models.SessionKind
	ActiveDeckID *string
	Cards        []models.StudyCard
	Index        int
}

// Launcher turns "study this deck" or "review what's due" into a Session.
type Launcher struct {
	client      authority.ClientInterface
	store       *Store
	reviewBatch int
	now         func() time.Time
}

func NewLauncher(client authority.ClientInterface, store *Store, reviewBatch int) *Launcher {
	if reviewBatch <= 0 {
		reviewBatch = DefaultReviewBatch
	}
	return &Launcher{client: client, store: store, reviewBatch: reviewBatch, now: time.Now}
}

// ClampNewCardLimit turns a requested new-card limit into the one sent to
// the authority: missing or non-finite input gives the default, anything
// else is truncated and clamped into [MinNewCardLimit, MaxNewCardLimit].
func ClampNewCardLimit(limit *float64) int {
	if limit == nil || math.IsNaN(*limit) || math.IsInf(*limit, 0) {
		return DefaultNewCardLimit
	}
	v := math.Trunc(*limit)
	if v < MinNewCardLimit {
		return MinNewCardLimit
	}
	if v > MaxNewCardLimit {
		return MaxNewCardLimit
	}
	return int(v)
}

// SeedAt derives the card-order seed for randomized modes.
func SeedAt(now time.Time) int64 {
	return now.UnixMilli() % seedModulus
}

// ResolveFetch builds the card request for a deck session. Only randomized
// modes carry a seed and only new-card modes carry a limit.
func ResolveFetch(deckID string, mode models.StudyMode, limit *float64, now time.Time) authority.FetchParams {
	p := authority.FetchParams{DeckID: deckID, Mode: mode}
	if mode.Randomized() {
		seed := SeedAt(now)
		p.Seed = &seed
	}
	if mode.NewOnly() {
		n := ClampNewCardLimit(limit)
		p.Limit = &n
	}
	return p
}

// StartDeckStudy fetches the cards for one deck. An empty result is not an error.
func (l *Launcher) StartDeckStudy(ctx context.Context, deckID string, mode models.StudyMode, limit *float64) (Session, error) {
	params := ResolveFetch(deckID, mode, limit, l.now())
	log := logger.FromContext(ctx).WithPrefix("launcher").WithFields(map[string]any{
		"deck_id": deckID,
		"mode":    mode,
	})
	if params.Limit != nil {
		log = log.WithField("limit", *params.Limit)
	}
	log.Debug("starting deck study")

	cards, err := l.client.FetchCards(ctx, params)
	if err != nil {
		return Session{}, fmt.Errorf("fetch cards for deck %s: %w", deckID, err)
	}
	if err := checkCards(cards); err != nil {
		return Session{}, fmt.Errorf("fetch cards for deck %s: %w", deckID, err)
	}

	id := deckID
	return Session{
		Key:          models.DeckKey(deckID),
		Kind:         models.KindDeck,
		ActiveDeckID: &id,
		Cards:        cards,
	}, nil
}

// StartReviewStudy fetches a batch of due cards across all decks.
func (l *Launcher) StartReviewStudy(ctx context.Context) (Session, error) {
	logger.FromContext(ctx).WithPrefix("launcher").Debug("starting review of up to %d due cards", l.reviewBatch)

	cards, err := l.client.FetchDueCards(ctx, l.reviewBatch)
	if err != nil {
		return Session{}, fmt.Errorf("fetch due cards: %w", err)
	}
	if err := checkCards(cards); err != nil {
		return Session{}, fmt.Errorf("fetch due cards: %w", err)
	}
	return Session{
		Key:   models.ReviewKey,
		Kind:  models.KindReview,
		Cards: cards,
	}, nil
}

// ResumeDeckSession rebuilds a session from a snapshot without asking the authority.
func (l *Launcher) ResumeDeckSession(saved models.PersistedSession) Session {
	var deckID *string
	if saved.ActiveDeckID != nil {
		id := *saved.ActiveDeckID
		deckID = &id
	}
	return Session{
		Key:          saved.Key,
		Kind:         saved.Mode,
		ActiveDeckID: deckID,
		Cards:        saved.DeckCards,
		Index:        saved.CurrentIndex,
	}
}

// RestartDeckSession drops the paused session of a deck, if any, so the next
// StartDeckStudy begins fresh.
func (l *Launcher) RestartDeckSession(ctx context.Context, deckID string) error {
	return l.store.Clear(ctx, models.DeckKey(deckID))
}
