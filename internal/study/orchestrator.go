package study

import (
	"context"
	"fmt"
	"sync"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

// State is the lifecycle phase of a learner's study session.
type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// View is the observable session state handed to the UI.
type View struct {
	State            State                    `json:"state"`
	IsStudying       bool                     `json:"is_studying"`
	LoadingDeckCards bool                     `json:"loading_deck_cards"`
	Key              models.SessionKey        `json:"key,omitempty"`
	Mode             models.SessionKind       `json:"mode,omitempty"`
	ActiveDeckID     *string                  `json:"active_deck_id"`
	Cards            []models.StudyCard       `json:"cards"`
	CurrentIndex     int                      `json:"current_index"`
	IsCompleted      bool                     `json:"is_completed"`
	ResumeCandidate  *models.PersistedSession `json:"resume_candidate"`
	NoCards          bool                     `json:"no_cards,omitempty"`
}

// Orchestrator drives one learner through idle, loading, active and
// completed. All state changes happen under mu; calls to the authority are
// made without holding it.
type Orchestrator struct {
	mu         sync.Mutex
	state      State
	session    Session
	tracker    *Tracker
	generation uint64

	launcher *Launcher
	levels   *LevelSync
	store    *Store
	resolver *ResumeResolver
}

func NewOrchestrator(launcher *Launcher, levels *LevelSync, store *Store, resolver *ResumeResolver) *Orchestrator {
	return &Orchestrator{
		state:    StateIdle,
		tracker:  NewTracker(nil, 0, nil),
		launcher: launcher,
		levels:   levels,
		store:    store,
		resolver: resolver,
	}
}

func (o *Orchestrator) log(ctx context.Context) *logger.Logger {
	l := logger.FromContext(ctx).WithPrefix("study")
	if o.session.Key != "" {
		l = l.WithField("session", o.session.Key)
	}
	return l
}

// View returns the current observable state.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

func (o *Orchestrator) viewLocked() View {
	v := View{
		State:            o.state,
		IsStudying:       o.state == StateActive,
		LoadingDeckCards: o.state == StateLoading,
		CurrentIndex:     o.tracker.Index(),
		IsCompleted:      o.tracker.IsCompleted(),
		ResumeCandidate:  o.resolver.Candidate(),
		Cards:            o.tracker.Cards(),
	}
	if o.state == StateActive || o.state == StateCompleted {
		v.Key = o.session.Key
		v.Mode = o.session.Kind
		v.ActiveDeckID = o.session.ActiveDeckID
	}
	return v
}

// StartDeckStudy fetches a deck's cards and enters the session if there are any.
func (o *Orchestrator) StartDeckStudy(ctx context.Context, deckID string, mode models.StudyMode, limit *float64) (View, error) {
	return o.start(ctx, func(ctx context.Context) (Session, error) {
		return o.launcher.StartDeckStudy(ctx, deckID, mode, limit)
	})
}

// StartReviewStudy fetches due cards across decks and enters the session if there are any.
func (o *Orchestrator) StartReviewStudy(ctx context.Context) (View, error) {
	return o.start(ctx, o.launcher.StartReviewStudy)
}

func (o *Orchestrator) start(ctx context.Context, fetch func(context.Context) (Session, error)) (View, error) {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return o.View(), ErrSessionActive
	}
	o.state = StateLoading
	o.generation++
	gen := o.generation
	o.mu.Unlock()

	sess, err := fetch(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.generation != gen || o.state != StateLoading {
		o.log(ctx).Info("ignoring card list for a request that was closed")
		return o.viewLocked(), ErrSuperseded
	}
	if err != nil {
		o.state = StateIdle
		o.log(ctx).Warn("card fetch failed: %v", err)
		return o.viewLocked(), err
	}
	if len(sess.Cards) == 0 {
		o.state = StateIdle
		o.log(ctx).Info("no cards to study for %s", sess.Key)
		v := o.viewLocked()
		v.NoCards = true
		return v, nil
	}

	o.activateLocked(sess)
	o.log(ctx).Info("session started with %d cards", len(sess.Cards))
	return o.viewLocked(), nil
}

func (o *Orchestrator) activateLocked(sess Session) {
	o.generation++
	o.session = sess
	o.tracker = NewTracker(sess.Cards, sess.Index, o.levels)
	o.state = StateActive
	o.resolver.Forget(sess.Key)
}

func (o *Orchestrator) resetLocked() {
	o.generation++
	o.session = Session{}
	o.tracker = NewTracker(nil, 0, nil)
	o.state = StateIdle
}

// RefreshResume recomputes the resume candidate for the given keys; with no
// keys every paused session of the learner is considered.
func (o *Orchestrator) RefreshResume(ctx context.Context, keys ...models.SessionKey) View {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolver.Refresh(ctx, keys...)
	return o.viewLocked()
}

// ResumeLastSession enters the current resume candidate. The snapshot is
// re-read so a newer save under the same key wins, then deleted.
func (o *Orchestrator) ResumeLastSession(ctx context.Context) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateIdle {
		return o.viewLocked(), ErrSessionActive
	}
	candidate := o.resolver.Candidate()
	if candidate == nil {
		return o.viewLocked(), ErrNoResumeCandidate
	}
	// The offer survives a failed read so the learner can retry.
	saved, err := o.store.Load(ctx, candidate.Key)
	if err != nil {
		return o.viewLocked(), err
	}
	o.resolver.Take()
	if saved == nil {
		return o.viewLocked(), ErrNoResumeCandidate
	}

	o.activateLocked(o.launcher.ResumeDeckSession(*saved))
	if err := o.store.Clear(ctx, saved.Key); err != nil {
		o.log(ctx).Warn("resumed but could not clear snapshot: %v", err)
	}
	o.log(ctx).Info("resumed at card %d of %d", saved.CurrentIndex+1, len(saved.DeckCards))
	return o.viewLocked(), nil
}

// DiscardResume drops the resume candidate and its snapshot.
func (o *Orchestrator) DiscardResume(ctx context.Context) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.resolver.Discard(ctx); err != nil {
		return o.viewLocked(), err
	}
	return o.viewLocked(), nil
}

// RestartDeckSession forgets the paused session of a deck without starting one.
func (o *Orchestrator) RestartDeckSession(ctx context.Context, deckID string) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.launcher.RestartDeckSession(ctx, deckID); err != nil {
		return o.viewLocked(), err
	}
	o.resolver.Forget(models.DeckKey(deckID))
	return o.viewLocked(), nil
}

// RateCard records a rating for the current card and advances.
func (o *Orchestrator) RateCard(ctx context.Context, rating models.Rating) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateActive {
		return o.viewLocked(), ErrNotStudying
	}
	if err := o.tracker.RateCard(rating); err != nil {
		return o.viewLocked(), err
	}
	return o.afterAdvanceLocked(ctx), nil
}

// SkipCard advances without rating.
func (o *Orchestrator) SkipCard(ctx context.Context) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateActive {
		return o.viewLocked(), ErrNotStudying
	}
	if err := o.tracker.SkipCard(); err != nil {
		return o.viewLocked(), err
	}
	return o.afterAdvanceLocked(ctx), nil
}

// afterAdvanceLocked completes the session when the last card was passed.
// The returned view is taken before the reset so it shows the finished session.
func (o *Orchestrator) afterAdvanceLocked(ctx context.Context) View {
	if !o.tracker.IsCompleted() || o.state != StateActive {
		return o.viewLocked()
	}

	o.state = StateCompleted
	done := o.viewLocked()

	if err := o.store.Clear(ctx, o.session.Key); err != nil {
		o.log(ctx).Warn("session completed but snapshot was not cleared: %v", err)
	}
	o.log(ctx).Info("session completed after %d cards", o.tracker.Len())
	o.resetLocked()
	return done
}

// LevelUp raises a card's mastery level on the authority and shows the
// level it confirms.
func (o *Orchestrator) LevelUp(ctx context.Context, cardID string) (View, error) {
	return o.adjustLevel(ctx, cardID, o.levels.LevelUp)
}

// LevelDown lowers a card's mastery level on the authority.
func (o *Orchestrator) LevelDown(ctx context.Context, cardID string) (View, error) {
	return o.adjustLevel(ctx, cardID, o.levels.LevelDown)
}

func (o *Orchestrator) adjustLevel(ctx context.Context, cardID string, adjust func(context.Context, models.StudyCard) (int, error)) (View, error) {
	o.mu.Lock()
	if o.state != StateActive {
		v := o.viewLocked()
		o.mu.Unlock()
		return v, ErrNotStudying
	}
	card, ok := o.tracker.Card(cardID)
	if !ok {
		v := o.viewLocked()
		o.mu.Unlock()
		return v, fmt.Errorf("%w: %s", ErrCardNotInSession, cardID)
	}
	gen := o.generation
	o.mu.Unlock()

	level, err := adjust(ctx, card)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.log(ctx).Warn("level change for card %s failed: %v", cardID, err)
		return o.viewLocked(), fmt.Errorf("adjust level of card %s: %w", cardID, err)
	}
	if o.generation != gen {
		o.log(ctx).Debug("session changed while adjusting card %s, dropping level %d", cardID, level)
		return o.viewLocked(), nil
	}
	o.tracker.SetActiveLevel(cardID, level)
	return o.viewLocked(), nil
}

// RemoveFromProgress deletes the current card's stored progress and skips
// past it without rating. On failure the session is left as it was.
func (o *Orchestrator) RemoveFromProgress(ctx context.Context) (View, error) {
	o.mu.Lock()
	if o.state != StateActive {
		v := o.viewLocked()
		o.mu.Unlock()
		return v, ErrNotStudying
	}
	card, ok := o.tracker.Current()
	if !ok {
		v := o.viewLocked()
		o.mu.Unlock()
		return v, ErrNoCurrentCard
	}
	gen, index := o.generation, o.tracker.Index()
	o.mu.Unlock()

	err := o.levels.RemoveProgress(ctx, card)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.log(ctx).Warn("removing progress of card %s failed: %v", card.ID, err)
		return o.viewLocked(), fmt.Errorf("remove progress of card %s: %w", card.ID, err)
	}
	if o.generation != gen || o.tracker.Index() != index {
		return o.viewLocked(), nil
	}
	if err := o.tracker.SkipCard(); err != nil {
		return o.viewLocked(), err
	}
	return o.afterAdvanceLocked(ctx), nil
}

// CloseSession is called when the learner leaves the study screen. An
// active session with cards left is saved for later; a pending fetch is
// abandoned.
func (o *Orchestrator) CloseSession(ctx context.Context) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateLoading:
		o.log(ctx).Debug("closing while cards are loading")
		o.resetLocked()
	case StateActive:
		if o.tracker.Remaining() > 0 {
			if err := o.store.Save(ctx, o.snapshotLocked()); err != nil {
				o.log(ctx).Error("failed to save paused session: %v", err)
				return o.viewLocked(), err
			}
			o.resolver.Invalidate()
			o.log(ctx).Info("paused at card %d of %d", o.tracker.Index()+1, o.tracker.Len())
		}
		o.resetLocked()
	}
	return o.viewLocked(), nil
}

func (o *Orchestrator) snapshotLocked() models.PersistedSession {
	return models.PersistedSession{
		Key:          o.session.Key,
		Mode:         o.session.Kind,
		ActiveDeckID: o.session.ActiveDeckID,
		DeckCards:    o.tracker.Cards(),
		CurrentIndex: o.tracker.Index(),
		IsStudying:   true,
	}
}
