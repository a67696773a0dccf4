package study

import (
	"context"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

// ResumeResolver holds at most one resumable snapshot, re-read from the
// store on every Refresh.
type ResumeResolver struct {
	store     *Store
	candidate *models.PersistedSession
}

func NewResumeResolver(store *Store) *ResumeResolver {
	return &ResumeResolver{store: store}
}

// Refresh looks for a resumable snapshot under keys, or under every key the
// learner has when keys is empty. The most recently saved one wins. Storage
// errors leave no candidate.
func (r *ResumeResolver) Refresh(ctx context.Context, keys ...models.SessionKey) *models.PersistedSession {
	log := logger.FromContext(ctx).WithPrefix("resume")
	r.candidate = nil

	var found []models.PersistedSession
	if len(keys) == 0 {
		all, err := r.store.List(ctx)
		if err != nil {
			log.Warn("cannot list paused sessions: %v", err)
			return nil
		}
		found = all
	} else {
		seen := make(map[models.SessionKey]bool, len(keys))
		for _, key := range keys {
			if seen[key] {
				continue
			}
			seen[key] = true
			snap, err := r.store.Load(ctx, key)
			if err != nil {
				log.Warn("cannot load paused session %s: %v", key, err)
				continue
			}
			if snap != nil {
				found = append(found, *snap)
			}
		}
	}

	for i := range found {
		snap := found[i]
		if len(snap.DeckCards) == 0 {
			continue
		}
		if r.candidate == nil || snap.SavedAt.After(r.candidate.SavedAt) {
			r.candidate = &snap
		}
	}

	if r.candidate != nil {
		log.Debug("resume candidate %s at %d/%d", r.candidate.Key, r.candidate.CurrentIndex, len(r.candidate.DeckCards))
	}
	return r.Candidate()
}

// Candidate returns a copy of the current candidate, or nil.
func (r *ResumeResolver) Candidate() *models.PersistedSession {
	if r.candidate == nil {
		return nil
	}
	cp := *r.candidate
	return &cp
}

// Take hands out the candidate and forgets it.
func (r *ResumeResolver) Take() (models.PersistedSession, bool) {
	if r.candidate == nil {
		return models.PersistedSession{}, false
	}
	snap := *r.candidate
	r.candidate = nil
	return snap, true
}

// Discard forgets the candidate and deletes its snapshot.
func (r *ResumeResolver) Discard(ctx context.Context) error {
	if r.candidate == nil {
		return nil
	}
	key := r.candidate.Key
	r.candidate = nil
	return r.store.Clear(ctx, key)
}

// Forget drops the candidate if it belongs to key, without touching the store.
func (r *ResumeResolver) Forget(key models.SessionKey) {
	if r.candidate != nil && r.candidate.Key == key {
		r.candidate = nil
	}
}

// Invalidate drops the candidate. Called after a snapshot is written so the
// next Refresh reads the new state.
func (r *ResumeResolver) Invalidate() {
	r.candidate = nil
}
