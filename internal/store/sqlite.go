package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"studyhub/internal/models"
)

// SQLiteStore persists sessions in the local SQLite database opened by
// internal/db. Rows keep the remote-store record shape: user_id, timestamp,
// file_name, flashcards, quiz_data (reserved), score, adaptive_data.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Create(ctx context.Context, session *models.StudySession) (*models.StudySession, error) {
	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, timestamp, file_name, flashcards, quiz_data, score, adaptive_data)
		VALUES (?, ?, ?, ?, NULL, NULL, NULL);
	`, session.UserID, createdAt.Format(models.TimestampLayout), session.SourceName, session.Flashcards)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	created := *session
	created.ID = strconv.FormatInt(id, 10)
	created.CreatedAt = createdAt
	created.Synced = true
	return &created, nil
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]models.StudySession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, timestamp, file_name, flashcards, quiz_data, score, adaptive_data
		FROM sessions
		WHERE user_id = ?
		ORDER BY id DESC;
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id, userID string) (*models.StudySession, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, timestamp, file_name, flashcards, quiz_data, score, adaptive_data
		FROM sessions
		WHERE id = ? AND user_id = ?;
	`, numericID, userID)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id, userID string, upd models.SessionUpdate) error {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}

	var sets []string
	var args []any
	if upd.Score != nil {
		sets = append(sets, "score = ?")
		args = append(args, *upd.Score)
	}
	if upd.Adaptive != nil {
		sets = append(sets, "adaptive_data = ?")
		args = append(args, *upd.Adaptive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, numericID, userID)

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE sessions SET %s WHERE id = ? AND user_id = ?;
	`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.StudySession, error) {
	var session models.StudySession
	var id int64
	var timestamp string
	if err := row.Scan(
		&id,
		&session.UserID,
		&timestamp,
		&session.SourceName,
		&session.Flashcards,
		&session.QuizData,
		&session.Score,
		&session.Adaptive,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	session.ID = strconv.FormatInt(id, 10)
	session.Synced = true
	if parsed, err := time.Parse(models.TimestampLayout, timestamp); err == nil {
		session.CreatedAt = parsed
	}
	return &session, nil
}
