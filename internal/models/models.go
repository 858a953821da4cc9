package models

import (
	"database/sql"
	"strings"
	"time"
)

// TimestampLayout is the format used for the persisted session timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

// LocalIDPrefix marks sessions that could not be synced to the store and only
// exist for the current interaction.
const LocalIDPrefix = "local-"

// StudySession binds one source document or pasted text to its generated
// flashcards, an optional quiz score, and optional adaptive content. The raw
// model replies are the source of truth; cards are re-parsed on demand.
type StudySession struct {
	ID         string
	UserID     string
	CreatedAt  time.Time
	SourceName string
	Flashcards string
	QuizData   sql.NullString // reserved, never written
	Score      sql.NullString // string-encoded percentage
	Adaptive   sql.NullString
	Synced     bool
}

// Local reports whether the session was never persisted to the store.
func (s *StudySession) Local() bool {
	return strings.HasPrefix(s.ID, LocalIDPrefix)
}

// SessionUpdate carries the partial fields an update may set. Nil fields are
// left untouched.
type SessionUpdate struct {
	Score    *string
	Adaptive *string
}

// Flashcard is a single question/answer study unit. Both fields are non-empty
// after a successful parse.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuizQuestion is one multiple-choice question. Options keep the order the
// model emitted them in and carry their own letter label, e.g. "A) Paris".
// Correct is one of A, B, C or D.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  string   `json:"correct"`
}

// AnswerSet maps a 0-based question index to the option string the user
// selected. Absent entries are unanswered.
type AnswerSet map[int]string
