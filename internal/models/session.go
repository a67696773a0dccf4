package models

import (
	"fmt"
	"strings"
	"time"
)

// Rating is the learner's answer quality for one card.
type Rating string

const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// ParseRating parses a rating name, case-insensitively.
func ParseRating(s string) (Rating, error) {
	switch r := Rating(strings.ToLower(strings.TrimSpace(s))); r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rating %q", s)
	}
}

// StudyMode selects how the authority picks cards for a deck session.
type StudyMode string

const (
	ModeOrdered    StudyMode = "ordered"
	ModeRandom     StudyMode = "random"
	ModeNewOrdered StudyMode = "new_ordered"
	ModeNewRandom  StudyMode = "new_random"
)

// ParseStudyMode parses a deck study mode. An empty string means ordered.
func ParseStudyMode(s string) (StudyMode, error) {
	if s == "" {
		return ModeOrdered, nil
	}
	switch m := StudyMode(strings.ToLower(s)); m {
	case ModeOrdered, ModeRandom, ModeNewOrdered, ModeNewRandom:
		return m, nil
	default:
		return "", fmt.Errorf("unknown study mode %q", s)
	}
}

// Randomized reports whether the mode needs a seed.
func (m StudyMode) Randomized() bool {
	return m == ModeRandom || m == ModeNewRandom
}

// NewOnly reports whether the mode requests previously unseen cards.
func (m StudyMode) NewOnly() bool {
	return m == ModeNewOrdered || m == ModeNewRandom
}

// SessionKind distinguishes single-deck study from cross-deck review.
type SessionKind string

const (
	KindDeck   SessionKind = "deck"
	KindReview SessionKind = "review"
)

// SessionKey partitions persisted sessions: "review" or "deck:<id>".
type SessionKey string

const (
	ReviewKey     SessionKey = "review"
	deckKeyPrefix            = "deck:"
)

// DeckKey returns the key of a single-deck session.
func DeckKey(deckID string) SessionKey {
	return SessionKey(deckKeyPrefix + deckID)
}

// ParseSessionKey validates s as a session key.
func ParseSessionKey(s string) (SessionKey, error) {
	if s == string(ReviewKey) {
		return ReviewKey, nil
	}
	if id, ok := strings.CutPrefix(s, deckKeyPrefix); ok && id != "" {
		return SessionKey(s), nil
	}
	return "", fmt.Errorf("invalid session key %q", s)
}

// Kind returns the session kind the key belongs to.
func (k SessionKey) Kind() SessionKind {
	if k == ReviewKey {
		return KindReview
	}
	return KindDeck
}

// DeckID returns the deck part of a deck key, or "" for the review key.
func (k SessionKey) DeckID() string {
	id, _ := strings.CutPrefix(string(k), deckKeyPrefix)
	if k == ReviewKey {
		return ""
	}
	return id
}

func (k SessionKey) String() string { return string(k) }

// SnapshotVersion is the current layout of PersistedSession.
const SnapshotVersion = 1

// PersistedSession is the durable snapshot written when a learner leaves a
// session with cards remaining.
type PersistedSession struct {
	Version      int         `json:"version" validate:"eq=1"`
	Key          SessionKey  `json:"key" validate:"required"`
	Mode         SessionKind `json:"mode" validate:"oneof=deck review"`
	ActiveDeckID *string     `json:"active_deck_id"`
	DeckCards    []StudyCard `json:"deck_cards" validate:"required,min=1,dive"`
	CurrentIndex int         `json:"current_index" validate:"gte=0"`
	IsStudying   bool        `json:"is_studying" validate:"eq=true"`
	SavedAt      time.Time   `json:"saved_at" validate:"required"`
}

// Remaining returns how many cards are left to review.
func (p PersistedSession) Remaining() int {
	if n := len(p.DeckCards) - p.CurrentIndex; n > 0 {
		return n
	}
	return 0
}
