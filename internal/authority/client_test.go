package authority_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/authority"
	"github.com/vytor/studyflash/internal/models"
)

const cardsBody = `{"cards": [
	{"id": "c1", "deck_id": "d1", "title": "One", "type": "flashcard", "active_level": 0,
	 "levels": [{"level_index": 0, "content": {"question": "q", "answer": "a"}}]}
]}`

func TestFetchCards_SendsModeSeedAndLimit(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(cardsBody))
	}))
	defer srv.Close()

	seed, limit := int64(12345), 20
	c := authority.New(srv.URL, authority.WithToken("tok"))
	cards, err := c.FetchCards(context.Background(), authority.FetchParams{
		DeckID: "d1",
		Mode:   models.ModeNewRandom,
		Seed:   &seed,
		Limit:  &limit,
	})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "c1", cards[0].ID)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/decks/d1/study-cards", got.URL.Path)
	assert.Equal(t, "new_random", got.URL.Query().Get("mode"))
	assert.Equal(t, "12345", got.URL.Query().Get("seed"))
	assert.Equal(t, "20", got.URL.Query().Get("limit"))
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
}

func TestFetchCards_OmitsUnsetParams(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"cards": []}`))
	}))
	defer srv.Close()

	c := authority.New(srv.URL)
	cards, err := c.FetchCards(context.Background(), authority.FetchParams{DeckID: "d1", Mode: models.ModeOrdered})
	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.NotContains(t, query, "seed")
	assert.NotContains(t, query, "limit")
}

func TestFetchDueCards_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reviews/due", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		http.Error(w, "scheduler down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := authority.New(srv.URL).FetchDueCards(context.Background(), 20)
	require.Error(t, err)

	var statusErr *authority.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	assert.Contains(t, statusErr.Body, "scheduler down")
}

func TestSubmitRating_PostsRating(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cards/c1/review", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := authority.New(srv.URL).SubmitRating(context.Background(), "c1", models.RatingHard)
	require.NoError(t, err)
	assert.Equal(t, "hard", body["rating"])
}

func TestAdjustLevel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cards/c1/level-up":
			w.Write([]byte(`{"active_level": 3}`))
		case "/cards/c1/level-down":
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := authority.New(srv.URL)

	level, err := c.AdjustLevel(context.Background(), "c1", authority.LevelUp)
	require.NoError(t, err)
	assert.Equal(t, 3, level)

	_, err = c.AdjustLevel(context.Background(), "c1", authority.LevelDown)
	assert.ErrorContains(t, err, "missing active_level")

	_, err = c.AdjustLevel(context.Background(), "c1", authority.Direction("sideways"))
	assert.Error(t, err)
}

func TestDeleteProgress(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/cards/c%2F1/progress", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, authority.New(srv.URL).DeleteProgress(context.Background(), "c/1"))
	assert.True(t, called)
}

func TestFetchCards_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cards": [{"id": "x", "type": "essay"}]}`))
	}))
	defer srv.Close()

	_, err := authority.New(srv.URL).FetchCards(context.Background(), authority.FetchParams{DeckID: "d", Mode: models.ModeOrdered})
	assert.ErrorContains(t, err, "decode response")
}
