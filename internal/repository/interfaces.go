package repository

import (
	"context"
	"time"
)

// SessionRecord is one stored session snapshot. Payload is opaque to the
// repository; decoding and validation happen in the study store.
type SessionRecord struct {
	LearnerID  string
	SessionKey string
	Payload    []byte
	SavedAt    time.Time
}

// SessionRepository persists at most one record per (learner, session key).
type SessionRepository interface {
	// Put writes the whole record, replacing any previous one for the key.
	Put(ctx context.Context, rec SessionRecord) error
	// Get returns nil when no record exists.
	Get(ctx context.Context, learnerID, sessionKey string) (*SessionRecord, error)
	// Delete is a no-op when no record exists.
	Delete(ctx context.Context, learnerID, sessionKey string) error
	// List returns the learner's records, most recently saved first.
	List(ctx context.Context, learnerID string) ([]SessionRecord, error)
}
