package testutil

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(context.Background(), conn))
	return conn
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// FlashCard builds a flashcard with the given number of levels.
func FlashCard(id, deckID string, levels int) models.StudyCard {
	card := models.StudyCard{
		ID:     id,
		DeckID: deckID,
		Title:  "card " + id,
		Type:   models.CardTypeFlashcard,
	}
	for i := 0; i < levels; i++ {
		card.Levels = append(card.Levels, models.CardLevel{
			LevelIndex: i,
			Content: models.FlashcardContent{
				Question: id + " question",
				Answer:   id + " answer",
			},
		})
	}
	return card
}

// Cards builds n two-level flashcards with ids c1..cn in deckID.
func Cards(deckID string, n int) []models.StudyCard {
	out := make([]models.StudyCard, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, FlashCard("c"+strconv.Itoa(i), deckID, 2))
	}
	return out
}
