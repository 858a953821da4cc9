package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/models"
	"studyhub/internal/store"
)

var (
	// ErrNoInput indicates that neither a file nor pasted text produced any
	// study text.
	ErrNoInput = errors.New("no study text provided")

	// ErrNoFlashcards indicates the model reply parsed to zero flashcards.
	ErrNoFlashcards = errors.New("could not parse any flashcards from the response")

	// ErrNoQuiz indicates the model reply parsed to zero quiz questions.
	ErrNoQuiz = errors.New("could not parse quiz from the response")

	// ErrNoScoredSessions indicates the user has no completed quizzes yet.
	ErrNoScoredSessions = errors.New("no scored sessions to analyze")
)

// SourcePastedText labels sessions created from pasted text rather than a file.
const SourcePastedText = "Pasted Text"

// SessionService drives the text-to-study-content pipeline: prompt the model,
// parse its reply, persist the session, grade quizzes. Each method is one
// synchronous user action; store failures degrade to warnings and never lose
// generated content.
type SessionService struct {
	store store.SessionStore
	gen   Generator
}

func NewSessionService(sessions store.SessionStore, gen Generator) *SessionService {
	return &SessionService{store: sessions, gen: gen}
}

// GenerateResult carries a created session, its parsed cards and a non-fatal
// warning when the session could not be synced to the store.
type GenerateResult struct {
	Session *models.StudySession
	Cards   []models.Flashcard
	Warning string
}

// CreateFromText generates flashcards from study text and persists a new
// session. When the store create fails the session is kept with a local-only
// id so the generated content survives the interaction.
func (s *SessionService) CreateFromText(ctx context.Context, userID, sourceName, text string) (*GenerateResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoInput
	}
	if sourceName == "" {
		sourceName = SourcePastedText
	}

	raw, err := s.gen.Generate(ctx, FlashcardPrompt(text), TempFlashcards)
	if err != nil {
		return nil, fmt.Errorf("generate flashcards: %w", err)
	}

	cards := ParseFlashcards(raw)
	if len(cards) == 0 {
		return nil, ErrNoFlashcards
	}

	session := &models.StudySession{
		UserID:     userID,
		CreatedAt:  time.Now(),
		SourceName: sourceName,
		Flashcards: raw,
	}

	created, err := s.store.Create(ctx, session)
	if err != nil {
		session.ID = models.LocalIDPrefix + uuid.NewString()
		return &GenerateResult{
			Session: session,
			Cards:   cards,
			Warning: fmt.Sprintf("session saved locally only (store insert failed: %v)", err),
		}, nil
	}

	return &GenerateResult{Session: created, Cards: cards}, nil
}

// StartQuiz generates and parses a quiz from the session's flashcards. The
// returned questions are held in memory only; correct answers are never
// persisted.
func (s *SessionService) StartQuiz(ctx context.Context, session *models.StudySession) ([]models.QuizQuestion, error) {
	if strings.TrimSpace(session.Flashcards) == "" {
		return nil, ErrNoInput
	}

	raw, err := s.gen.Generate(ctx, QuizPrompt(session.Flashcards), TempQuiz)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	questions := ParseQuiz(raw)
	if len(questions) == 0 {
		return nil, ErrNoQuiz
	}
	return questions, nil
}

// QuizResult is the outcome of one quiz submission.
type QuizResult struct {
	Score   int
	Total   int
	Percent int
	Warning string
}

// SubmitQuiz grades the answers and persists the percentage on the session.
// A failed or unsynced save is reported as a warning; the displayed result is
// never rolled back.
func (s *SessionService) SubmitQuiz(ctx context.Context, session *models.StudySession, questions []models.QuizQuestion, answers models.AnswerSet) (*QuizResult, error) {
	score, total, err := Grade(questions, answers)
	if err != nil {
		return nil, err
	}

	result := &QuizResult{
		Score:   score,
		Total:   total,
		Percent: Percent(score, total),
	}

	encoded := strconv.Itoa(result.Percent)
	if session.Local() {
		result.Warning = "session not yet synced to the store; score kept locally only"
	} else if err := s.store.Update(ctx, session.ID, session.UserID, models.SessionUpdate{Score: &encoded}); err != nil {
		result.Warning = fmt.Sprintf("could not save quiz score: %v", err)
	}
	session.Score = sql.NullString{String: encoded, Valid: true}

	return result, nil
}

// AdaptiveResult carries adaptive flashcards and a non-fatal save warning.
type AdaptiveResult struct {
	Raw     string
	Cards   []models.Flashcard
	Warning string
}

// GenerateAdaptive produces harder follow-up flashcards from the session's
// prior cards and persists the raw reply. Save failures surface as warnings.
func (s *SessionService) GenerateAdaptive(ctx context.Context, session *models.StudySession) (*AdaptiveResult, error) {
	if strings.TrimSpace(session.Flashcards) == "" {
		return nil, ErrNoInput
	}

	raw, err := s.gen.Generate(ctx, AdaptivePrompt(session.Flashcards), TempAdaptive)
	if err != nil {
		return nil, fmt.Errorf("generate adaptive flashcards: %w", err)
	}

	cards := ParseFlashcards(raw)
	if len(cards) == 0 {
		return nil, ErrNoFlashcards
	}

	result := &AdaptiveResult{Raw: raw, Cards: cards}
	if session.Local() {
		result.Warning = "session not yet synced to the store; adaptive cards kept locally only"
	} else if err := s.store.Update(ctx, session.ID, session.UserID, models.SessionUpdate{Adaptive: &raw}); err != nil {
		result.Warning = fmt.Sprintf("could not save adaptive flashcards: %v", err)
	}
	session.Adaptive = sql.NullString{String: raw, Valid: true}

	return result, nil
}

// Library returns the user's sessions, newest first.
func (s *SessionService) Library(ctx context.Context, userID string) ([]models.StudySession, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns one of the user's sessions.
func (s *SessionService) Get(ctx context.Context, id, userID string) (*models.StudySession, error) {
	return s.store.Get(ctx, id, userID)
}

// Recommendations asks the model for a study plan based on the user's scored
// session history.
func (s *SessionService) Recommendations(ctx context.Context, userID string) (string, error) {
	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load sessions: %w", err)
	}

	history := HistorySummary(sessions)
	if history == "" {
		return "", ErrNoScoredSessions
	}

	plan, err := s.gen.Generate(ctx, RecommendationPrompt(history), TempRecommendations)
	if err != nil {
		return "", fmt.Errorf("generate recommendations: %w", err)
	}
	return plan, nil
}

// Progress returns the percentage of the user's sessions that have a quiz
// score, truncated to a whole number.
func (s *SessionService) Progress(ctx context.Context, userID string) (int, error) {
	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load sessions: %w", err)
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	completed := 0
	for _, sess := range sessions {
		if sess.Score.Valid && sess.Score.String != "" {
			completed++
		}
	}
	return completed * 100 / len(sessions), nil
}
