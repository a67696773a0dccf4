package study_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/authority"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/study"
	"github.com/vytor/studyflash/internal/testutil"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

func f64(v float64) *float64 { return &v }

func TestClampNewCardLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit *float64
		want  int
	}{
		{name: "missing", limit: nil, want: 20},
		{name: "above max", limit: f64(500), want: 200},
		{name: "zero", limit: f64(0), want: 1},
		{name: "negative", limit: f64(-3), want: 1},
		{name: "in range", limit: f64(50), want: 50},
		{name: "fraction truncated", limit: f64(37.9), want: 37},
		{name: "max", limit: f64(200), want: 200},
		{name: "NaN", limit: f64(math.NaN()), want: 20},
		{name: "infinite", limit: f64(math.Inf(1)), want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, study.ClampNewCardLimit(tt.limit))
		})
	}
}

func TestResolveFetch(t *testing.T) {
	now := time.UnixMilli(1_700_123_456_789)
	wantSeed := int64(123_456_789)

	t.Run("ordered sends neither seed nor limit", func(t *testing.T) {
		p := study.ResolveFetch("d1", models.ModeOrdered, f64(50), now)
		assert.Nil(t, p.Seed)
		assert.Nil(t, p.Limit)
		assert.Equal(t, "d1", p.DeckID)
	})

	t.Run("random sends a seed only", func(t *testing.T) {
		p := study.ResolveFetch("d1", models.ModeRandom, f64(50), now)
		require.NotNil(t, p.Seed)
		assert.Equal(t, wantSeed, *p.Seed)
		assert.Nil(t, p.Limit)
	})

	t.Run("new ordered sends a limit only", func(t *testing.T) {
		p := study.ResolveFetch("d1", models.ModeNewOrdered, nil, now)
		assert.Nil(t, p.Seed)
		require.NotNil(t, p.Limit)
		assert.Equal(t, 20, *p.Limit)
	})

	t.Run("new random sends both", func(t *testing.T) {
		p := study.ResolveFetch("d1", models.ModeNewRandom, f64(500), now)
		require.NotNil(t, p.Seed)
		require.NotNil(t, p.Limit)
		assert.Equal(t, wantSeed, *p.Seed)
		assert.Equal(t, 200, *p.Limit)
	})
}

func TestSeedAt_VariesWithTime(t *testing.T) {
	base := time.UnixMilli(5_000_000_000)
	assert.NotEqual(t, study.SeedAt(base), study.SeedAt(base.Add(time.Millisecond)))
	assert.Less(t, study.SeedAt(base), int64(1_000_000_000))
}

func newLauncher(t *testing.T) (*study.Launcher, *mocks.MockAuthorityClient, *study.Store) {
	client := new(mocks.MockAuthorityClient)
	store := newStore(t, "learner-1")
	return study.NewLauncher(client, store, 15), client, store
}

func TestLauncher_StartDeckStudy(t *testing.T) {
	l, client, _ := newLauncher(t)
	cards := testutil.Cards("d1", 3)

	client.On("FetchCards", mock.Anything, mock.MatchedBy(func(p authority.FetchParams) bool {
		return p.DeckID == "d1" && p.Mode == models.ModeNewRandom && p.Limit != nil && *p.Limit == 200 && p.Seed != nil
	})).Return(cards, nil)

	sess, err := l.StartDeckStudy(context.Background(), "d1", models.ModeNewRandom, f64(500))
	require.NoError(t, err)

	assert.Equal(t, models.DeckKey("d1"), sess.Key)
	assert.Equal(t, models.KindDeck, sess.Kind)
	require.NotNil(t, sess.ActiveDeckID)
	assert.Equal(t, "d1", *sess.ActiveDeckID)
	assert.Equal(t, 0, sess.Index)
	assert.Len(t, sess.Cards, 3)
	client.AssertExpectations(t)
}

func TestLauncher_StartDeckStudyOrderedIgnoresLimit(t *testing.T) {
	l, client, _ := newLauncher(t)

	client.On("FetchCards", mock.Anything, authority.FetchParams{DeckID: "d1", Mode: models.ModeOrdered}).
		Return([]models.StudyCard{}, nil)

	sess, err := l.StartDeckStudy(context.Background(), "d1", models.ModeOrdered, f64(50))
	require.NoError(t, err)
	assert.Empty(t, sess.Cards)
	client.AssertExpectations(t)
}

func TestLauncher_StartDeckStudyFetchError(t *testing.T) {
	l, client, _ := newLauncher(t)
	boom := errors.New("connection refused")
	client.On("FetchCards", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := l.StartDeckStudy(context.Background(), "d1", models.ModeRandom, nil)
	assert.ErrorIs(t, err, boom)
}

func TestLauncher_RejectsCardsThatCannotBePaused(t *testing.T) {
	noID := testutil.FlashCard("", "d1", 1)
	negative := testutil.FlashCard("c2", "d1", 1)
	negative.ActiveLevel = -1
	mismatched := testutil.FlashCard("c3", "d1", 1)
	mismatched.Levels[0].Content = models.MultipleChoiceContent{Question: "q"}

	tests := []struct {
		name string
		card models.StudyCard
	}{
		{name: "missing id", card: noID},
		{name: "negative level", card: negative},
		{name: "content of another type", card: mismatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, client, _ := newLauncher(t)
			cards := append(testutil.Cards("d1", 1), tt.card)
			client.On("FetchCards", mock.Anything, mock.Anything).Return(cards, nil)
			client.On("FetchDueCards", mock.Anything, mock.Anything).Return(cards, nil)

			_, err := l.StartDeckStudy(context.Background(), "d1", models.ModeOrdered, nil)
			assert.ErrorIs(t, err, study.ErrInvalidCards)

			_, err = l.StartReviewStudy(context.Background())
			assert.ErrorIs(t, err, study.ErrInvalidCards)
		})
	}
}

func TestLauncher_StartReviewStudy(t *testing.T) {
	l, client, _ := newLauncher(t)
	client.On("FetchDueCards", mock.Anything, 15).Return(testutil.Cards("mixed", 2), nil)

	sess, err := l.StartReviewStudy(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ReviewKey, sess.Key)
	assert.Equal(t, models.KindReview, sess.Kind)
	assert.Nil(t, sess.ActiveDeckID)
	assert.Len(t, sess.Cards, 2)
}

func TestLauncher_ResumeDeckSession(t *testing.T) {
	l, client, _ := newLauncher(t)
	deck := "d7"
	saved := models.PersistedSession{
		Key:          models.DeckKey(deck),
		Mode:         models.KindDeck,
		ActiveDeckID: &deck,
		DeckCards:    testutil.Cards(deck, 4),
		CurrentIndex: 2,
		IsStudying:   true,
	}

	sess := l.ResumeDeckSession(saved)

	assert.Equal(t, saved.Key, sess.Key)
	assert.Equal(t, models.KindDeck, sess.Kind)
	assert.Equal(t, 2, sess.Index)
	assert.Len(t, sess.Cards, 4)
	require.NotNil(t, sess.ActiveDeckID)
	assert.Equal(t, "d7", *sess.ActiveDeckID)
	client.AssertNotCalled(t, "FetchCards", mock.Anything, mock.Anything)
}

func TestLauncher_RestartDeckSessionClearsSnapshot(t *testing.T) {
	l, _, store := newLauncher(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, deckSnapshot("d3", 3, 1)))

	require.NoError(t, l.RestartDeckSession(ctx, "d3"))

	snap, err := store.Load(ctx, models.DeckKey("d3"))
	require.NoError(t, err)
	assert.Nil(t, snap)
}
