package api

import (
	"sync"
	"time"

	"studyhub/internal/models"
)

// ActiveQuiz is the in-memory state of one session's quiz in play. Quiz
// questions and their correct answers are never persisted; they live only for
// the duration of the interaction, so resuming a past session cannot re-grade
// an old quiz.
type ActiveQuiz struct {
	SessionID string
	UserID    string
	Questions []models.QuizQuestion
	StartedAt time.Time
}

// QuizRegistry holds the active quiz per session, guarded for concurrent
// handler access.
type QuizRegistry struct {
	mu     sync.RWMutex
	active map[string]*ActiveQuiz
}

func NewQuizRegistry() *QuizRegistry {
	return &QuizRegistry{
		active: make(map[string]*ActiveQuiz),
	}
}

// Put replaces the session's active quiz and clears any previous answers.
func (r *QuizRegistry) Put(sessionID, userID string, questions []models.QuizQuestion) *ActiveQuiz {
	quiz := &ActiveQuiz{
		SessionID: sessionID,
		UserID:    userID,
		Questions: questions,
		StartedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.active[sessionID] = quiz
	r.mu.Unlock()

	return quiz.clone()
}

// Get returns a copy of the session's active quiz scoped to its owner.
func (r *QuizRegistry) Get(sessionID, userID string) (*ActiveQuiz, bool) {
	r.mu.RLock()
	quiz, ok := r.active[sessionID]
	r.mu.RUnlock()
	if !ok || quiz.UserID != userID {
		return nil, false
	}
	return quiz.clone(), true
}

// Delete drops the session's active quiz, typically after submission.
func (r *QuizRegistry) Delete(sessionID string) {
	r.mu.Lock()
	delete(r.active, sessionID)
	r.mu.Unlock()
}

func (q *ActiveQuiz) clone() *ActiveQuiz {
	if q == nil {
		return nil
	}
	copyQuiz := &ActiveQuiz{
		SessionID: q.SessionID,
		UserID:    q.UserID,
		StartedAt: q.StartedAt,
	}
	if len(q.Questions) > 0 {
		copyQuiz.Questions = make([]models.QuizQuestion, len(q.Questions))
		for i, question := range q.Questions {
			copyQuiz.Questions[i] = question
			copyQuiz.Questions[i].Options = append([]string(nil), question.Options...)
		}
	}
	return copyQuiz
}
