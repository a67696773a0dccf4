package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Put(ctx context.Context, rec repository.SessionRecord) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("saving session: learner_id=%s, key=%s, bytes=%d", rec.LearnerID, rec.SessionKey, len(rec.Payload))

	// Single statement, so a concurrent reader sees either the old or the new snapshot.
	query, args, err := sqlBuilder.Insert("study_sessions").
		Columns("learner_id", "session_key", "payload", "saved_at").
		Values(rec.LearnerID, rec.SessionKey, string(rec.Payload), rec.SavedAt.UTC()).
		Suffix("ON CONFLICT(learner_id, session_key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to save session: %v", err)
		return err
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, learnerID, sessionKey string) (*repository.SessionRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("loading session: learner_id=%s, key=%s", learnerID, sessionKey)

	query, args, err := sqlBuilder.Select("learner_id", "session_key", "payload", "saved_at").
		From("study_sessions").
		Where(squirrel.Eq{"learner_id": learnerID, "session_key": sessionKey}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	var rec repository.SessionRecord
	var payload string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&rec.LearnerID, &rec.SessionKey, &payload, &rec.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no session stored for key=%s", sessionKey)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load session: %v", err)
		return nil, err
	}
	rec.Payload = []byte(payload)
	return &rec, nil
}

func (r *sessionRepository) Delete(ctx context.Context, learnerID, sessionKey string) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	query, args, err := sqlBuilder.Delete("study_sessions").
		Where(squirrel.Eq{"learner_id": learnerID, "session_key": sessionKey}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete session: %v", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		log.Debug("deleted %d session(s): learner_id=%s, key=%s", n, learnerID, sessionKey)
	}
	return nil
}

func (r *sessionRepository) List(ctx context.Context, learnerID string) ([]repository.SessionRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	query, args, err := sqlBuilder.Select("learner_id", "session_key", "payload", "saved_at").
		From("study_sessions").
		Where(squirrel.Eq{"learner_id": learnerID}).
		OrderBy("saved_at DESC", "session_key ASC").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []repository.SessionRecord
	for rows.Next() {
		var rec repository.SessionRecord
		var payload string
		if err := rows.Scan(&rec.LearnerID, &rec.SessionKey, &payload, &rec.SavedAt); err != nil {
			log.Error("failed to scan session row: %v", err)
			return nil, err
		}
		rec.Payload = []byte(payload)
		out = append(out, rec)
	}
	log.Debug("found %d sessions for learner %s", len(out), learnerID)
	return out, rows.Err()
}
