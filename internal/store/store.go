// Package store defines the study-session persistence contract. The pipeline
// depends on this narrow interface and tolerates store failures by keeping
// freshly generated content in memory; callers must never lose a session
// because a store call failed.
package store

import (
	"context"
	"errors"

	"studyhub/internal/models"
)

// ErrNotFound is returned when a session does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("session not found")

// SessionStore persists and retrieves study sessions.
type SessionStore interface {
	// Create inserts the session and returns it with its store-assigned id.
	Create(ctx context.Context, session *models.StudySession) (*models.StudySession, error)

	// ListByUser returns the user's sessions ordered newest-first by id.
	ListByUser(ctx context.Context, userID string) ([]models.StudySession, error)

	// Get returns one session scoped to its owner.
	Get(ctx context.Context, id, userID string) (*models.StudySession, error)

	// Update applies the non-nil fields of upd to the session, scoped to its
	// owner.
	Update(ctx context.Context, id, userID string, upd models.SessionUpdate) error
}
