package study

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

var snapshotValidator = validator.New(validator.WithRequiredStructEnabled())

// Store keeps one paused-session snapshot per session key for a learner.
type Store struct {
	repo      repository.SessionRepository
	learnerID string
	now       func() time.Time
}

func NewStore(repo repository.SessionRepository, learnerID string) *Store {
	return &Store{repo: repo, learnerID: learnerID, now: time.Now}
}

// Save writes the complete snapshot under snap.Key, replacing any previous one.
func (s *Store) Save(ctx context.Context, snap models.PersistedSession) error {
	log := logger.FromContext(ctx).WithPrefix("session_store").WithField("key", snap.Key)

	snap.Version = models.SnapshotVersion
	snap.IsStudying = true
	if snap.SavedAt.IsZero() {
		snap.SavedAt = s.now()
	}
	snap.SavedAt = snap.SavedAt.UTC()

	if err := checkSnapshot(snap); err != nil {
		return fmt.Errorf("save session %s: %w", snap.Key, err)
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", snap.Key, err)
	}

	if err := s.repo.Put(ctx, repository.SessionRecord{
		LearnerID:  s.learnerID,
		SessionKey: string(snap.Key),
		Payload:    payload,
		SavedAt:    snap.SavedAt,
	}); err != nil {
		return fmt.Errorf("save session %s: %w", snap.Key, err)
	}
	log.Debug("saved snapshot at index %d of %d", snap.CurrentIndex, len(snap.DeckCards))
	return nil
}

// Load returns the snapshot stored under key, or nil if there is none or it
// cannot be decoded. Unreadable snapshots are removed.
func (s *Store) Load(ctx context.Context, key models.SessionKey) (*models.PersistedSession, error) {
	rec, err := s.repo.Get(ctx, s.learnerID, string(key))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}
	if rec == nil {
		return nil, nil
	}
	return s.decode(ctx, *rec), nil
}

// Clear removes the snapshot for key. Clearing a missing key is not an error.
func (s *Store) Clear(ctx context.Context, key models.SessionKey) error {
	if err := s.repo.Delete(ctx, s.learnerID, string(key)); err != nil {
		return fmt.Errorf("clear session %s: %w", key, err)
	}
	logger.FromContext(ctx).WithPrefix("session_store").Debug("cleared snapshot %s", key)
	return nil
}

// List returns every readable snapshot of the learner, newest first.
func (s *Store) List(ctx context.Context) ([]models.PersistedSession, error) {
	recs, err := s.repo.List(ctx, s.learnerID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]models.PersistedSession, 0, len(recs))
	for _, rec := range recs {
		if snap := s.decode(ctx, rec); snap != nil {
			out = append(out, *snap)
		}
	}
	return out, nil
}

func (s *Store) decode(ctx context.Context, rec repository.SessionRecord) *models.PersistedSession {
	log := logger.FromContext(ctx).WithPrefix("session_store").WithField("key", rec.SessionKey)

	var snap models.PersistedSession
	err := json.Unmarshal(rec.Payload, &snap)
	if err == nil {
		err = checkSnapshot(snap)
	}
	if err == nil && string(snap.Key) != rec.SessionKey {
		err = fmt.Errorf("stored under %q but keyed %q", rec.SessionKey, snap.Key)
	}
	if err != nil {
		log.Warn("discarding unreadable snapshot: %v", err)
		if delErr := s.repo.Delete(ctx, s.learnerID, rec.SessionKey); delErr != nil {
			log.Warn("failed to delete unreadable snapshot: %v", delErr)
		}
		return nil
	}
	return &snap
}

// checkSnapshot enforces the stored shape beyond what the struct tags express.
func checkSnapshot(snap models.PersistedSession) error {
	if err := snapshotValidator.Struct(snap); err != nil {
		return err
	}
	if err := checkCards(snap.DeckCards); err != nil {
		return err
	}
	key, err := models.ParseSessionKey(string(snap.Key))
	if err != nil {
		return err
	}
	if key.Kind() != snap.Mode {
		return fmt.Errorf("mode %q does not match key %q", snap.Mode, snap.Key)
	}
	switch snap.Mode {
	case models.KindDeck:
		if snap.ActiveDeckID == nil || *snap.ActiveDeckID != key.DeckID() {
			return fmt.Errorf("active deck does not match key %q", snap.Key)
		}
	case models.KindReview:
		if snap.ActiveDeckID != nil {
			return fmt.Errorf("review session cannot have an active deck")
		}
	}
	if snap.CurrentIndex >= len(snap.DeckCards) {
		return fmt.Errorf("index %d leaves no card of %d to resume", snap.CurrentIndex, len(snap.DeckCards))
	}
	return nil
}

// checkCards applies the rules a snapshot puts on its cards, so a card list
// that could not be paused is refused when it arrives.
func checkCards(cards []models.StudyCard) error {
	for i, card := range cards {
		if err := snapshotValidator.Struct(card); err != nil {
			return fmt.Errorf("%w: card %d: %v", ErrInvalidCards, i, err)
		}
		if err := card.CheckContent(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCards, err)
		}
	}
	return nil
}
