package study_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/study"
	"github.com/vytor/studyflash/internal/testutil"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := newStore(t, "learner-1")
	ctx := context.Background()
	snap := deckSnapshot("d1", 3, 1)

	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx, snap.Key)
	require.NoError(t, err)
	require.NotNil(t, got)

	snap.Version = models.SnapshotVersion
	assert.Equal(t, snap, *got)
}

func TestStore_ReviewSnapshot(t *testing.T) {
	store := newStore(t, "learner-1")
	ctx := context.Background()
	snap := models.PersistedSession{
		Key:          models.ReviewKey,
		Mode:         models.KindReview,
		DeckCards:    testutil.Cards("mixed", 2),
		CurrentIndex: 0,
		SavedAt:      baseTime,
	}

	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx, models.ReviewKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.ActiveDeckID)
	assert.True(t, got.IsStudying)
	assert.Equal(t, 2, got.Remaining())
}

func TestStore_SaveReplaces(t *testing.T) {
	store := newStore(t, "learner-1")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, deckSnapshot("d1", 3, 0)))
	require.NoError(t, store.Save(ctx, deckSnapshot("d1", 3, 2)))

	got, err := store.Load(ctx, models.DeckKey("d1"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.CurrentIndex)
}

func TestStore_LoadAbsent(t *testing.T) {
	store := newStore(t, "learner-1")

	got, err := store.Load(context.Background(), models.DeckKey("nope"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store := newStore(t, "learner-1")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, deckSnapshot("d1", 2, 0)))

	require.NoError(t, store.Clear(ctx, models.DeckKey("d1")))
	require.NoError(t, store.Clear(ctx, models.DeckKey("d1")))

	got, err := store.Load(ctx, models.DeckKey("d1"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_LearnersAreIsolated(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	alice := study.NewStore(repo, "alice")
	bob := study.NewStore(repo, "bob")

	require.NoError(t, alice.Save(ctx, deckSnapshot("d1", 2, 0)))

	got, err := bob.Load(ctx, models.DeckKey("d1"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SaveRejectsInvalidSnapshots(t *testing.T) {
	store := newStore(t, "learner-1")
	ctx := context.Background()
	other := "d2"

	tests := []struct {
		name   string
		mutate func(*models.PersistedSession)
	}{
		{name: "no cards", mutate: func(s *models.PersistedSession) { s.DeckCards = nil }},
		{name: "index past end", mutate: func(s *models.PersistedSession) { s.CurrentIndex = 3 }},
		{name: "negative index", mutate: func(s *models.PersistedSession) { s.CurrentIndex = -1 }},
		{name: "deck mismatch", mutate: func(s *models.PersistedSession) { s.ActiveDeckID = &other }},
		{name: "missing deck", mutate: func(s *models.PersistedSession) { s.ActiveDeckID = nil }},
		{name: "kind mismatch", mutate: func(s *models.PersistedSession) { s.Mode = models.KindReview }},
		{name: "bad key", mutate: func(s *models.PersistedSession) { s.Key = "deck:" }},
		{name: "card without id", mutate: func(s *models.PersistedSession) { s.DeckCards[0].ID = "" }},
		{name: "negative active level", mutate: func(s *models.PersistedSession) { s.DeckCards[1].ActiveLevel = -1 }},
		{name: "level without content", mutate: func(s *models.PersistedSession) { s.DeckCards[0].Levels[1].Content = nil }},
		{name: "content of another type", mutate: func(s *models.PersistedSession) {
			s.DeckCards[2].Levels[0].Content = models.MultipleChoiceContent{
				Question: "q",
				Choices:  []models.Choice{{Text: "a", Correct: true}},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := deckSnapshot("d1", 3, 0)
			tt.mutate(&snap)
			assert.Error(t, store.Save(ctx, snap))
		})
	}
}

func TestStore_UnreadableSnapshotIsDropped(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "{not json"},
		{name: "old version", payload: `{"version":0,"key":"deck:d1","mode":"deck","active_deck_id":"d1","deck_cards":[{"id":"c1","type":"flashcard","levels":[]}],"current_index":0,"is_studying":true,"saved_at":"2026-03-14T09:30:00Z"}`},
		{name: "future version", payload: `{"version":2,"key":"deck:d1","mode":"deck","active_deck_id":"d1","deck_cards":[{"id":"c1","type":"flashcard","levels":[]}],"current_index":0,"is_studying":true,"saved_at":"2026-03-14T09:30:00Z"}`},
		{name: "unknown card type", payload: `{"version":1,"key":"deck:d1","mode":"deck","active_deck_id":"d1","deck_cards":[{"id":"c1","type":"essay","levels":[]}],"current_index":0,"is_studying":true,"saved_at":"2026-03-14T09:30:00Z"}`},
		{name: "keyed elsewhere", payload: `{"version":1,"key":"deck:d9","mode":"deck","active_deck_id":"d9","deck_cards":[{"id":"c1","type":"flashcard","levels":[]}],"current_index":0,"is_studying":true,"saved_at":"2026-03-14T09:30:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := newRepo(t)
			ctx := context.Background()
			require.NoError(t, repo.Put(ctx, repository.SessionRecord{
				LearnerID:  "learner-1",
				SessionKey: "deck:d1",
				Payload:    []byte(tt.payload),
				SavedAt:    baseTime,
			}))
			store := study.NewStore(repo, "learner-1")

			got, err := store.Load(ctx, models.DeckKey("d1"))
			require.NoError(t, err)
			assert.Nil(t, got)

			rec, err := repo.Get(ctx, "learner-1", "deck:d1")
			require.NoError(t, err)
			assert.Nil(t, rec, "unreadable snapshot should be deleted")
		})
	}
}

func TestStore_ListSkipsUnreadable(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	store := study.NewStore(repo, "learner-1")

	require.NoError(t, store.Save(ctx, deckSnapshot("d1", 2, 0)))
	require.NoError(t, repo.Put(ctx, repository.SessionRecord{
		LearnerID:  "learner-1",
		SessionKey: "deck:broken",
		Payload:    []byte("garbage"),
		SavedAt:    baseTime.Add(time.Hour),
	}))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.DeckKey("d1"), all[0].Key)
}
