package study_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/study"
	"github.com/vytor/studyflash/internal/testutil"
	"github.com/vytor/studyflash/internal/testutil/mocks"
	"github.com/vytor/studyflash/internal/worker"
)

var baseTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newRepo(t *testing.T) (repository.SessionRepository, *sql.DB) {
	t.Helper()
	conn := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, conn) })
	return sqlite.NewSessionRepository(conn), conn
}

func newStore(t *testing.T, learnerID string) *study.Store {
	t.Helper()
	repo, _ := newRepo(t)
	return study.NewStore(repo, learnerID)
}

func deckSnapshot(deckID string, cards, index int) models.PersistedSession {
	id := deckID
	return models.PersistedSession{
		Key:          models.DeckKey(deckID),
		Mode:         models.KindDeck,
		ActiveDeckID: &id,
		DeckCards:    testutil.Cards(deckID, cards),
		CurrentIndex: index,
		IsStudying:   true,
		SavedAt:      baseTime,
	}
}

// inlineJobs runs jobs on the calling goroutine and drops their errors the
// way the pool does.
type inlineJobs struct {
	ran []string
}

func (d *inlineJobs) Submit(job worker.Job) error {
	d.ran = append(d.ran, job.Name())
	_ = job.Run(context.Background())
	return nil
}

type fixture struct {
	orch   *study.Orchestrator
	client *mocks.MockAuthorityClient
	store  *study.Store
	jobs   *inlineJobs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := new(mocks.MockAuthorityClient)
	repo, _ := newRepo(t)
	jobs := &inlineJobs{}
	levels := study.NewLevelSync(client, jobs, time.Second)
	mgr := study.NewManager(repo, client, levels, 10)

	return &fixture{
		orch:   mgr.For("learner-1"),
		client: client,
		store:  mgr.Store("learner-1"),
		jobs:   jobs,
	}
}
