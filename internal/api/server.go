package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"studyhub/internal/extract"
	"studyhub/internal/models"
	"studyhub/internal/services"
	"studyhub/internal/store"
)

const maxMultipartMemory = 8 << 20 // 8 MB

type Server struct {
	mux      *http.ServeMux
	sessions *services.SessionService
	quizzes  *QuizRegistry
}

func NewServer(sessions *services.SessionService) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		sessions: sessions,
		quizzes:  NewQuizRegistry(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/sessions", s.handleSessions)
	s.mux.HandleFunc("/api/sessions/", s.handleSessionActions)
	s.mux.HandleFunc("/api/recommendations", s.handleRecommendations)
	s.mux.HandleFunc("/api/progress", s.handleProgress)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	case http.MethodGet:
		s.handleListSessions(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleCreateSession runs the full pipeline for one "generate flashcards"
// action: extract text from the upload (or take pasted text), prompt the
// model, parse the reply and persist the session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if form := r.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	userID := strings.TrimSpace(r.FormValue("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	sourceName := services.SourcePastedText
	text := strings.TrimSpace(r.FormValue("text"))

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
			return
		}
		extracted, err := extract.FromFile(header.Filename, data)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("could not extract text from %s: %v", header.Filename, err))
			return
		}
		if extracted != "" {
			text = extracted
			sourceName = header.Filename
		}
	}

	result, err := s.sessions.CreateFromText(r.Context(), userID, sourceName, text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoInput):
			writeError(w, http.StatusBadRequest, "Please upload or enter text first.")
		case errors.Is(err, services.ErrNoFlashcards):
			writeError(w, http.StatusUnprocessableEntity, "I couldn't parse any flashcards from the response. Try a smaller input or different text.")
		default:
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Flashcard generation failed: %v", err))
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session": sessionPayload(result.Session),
		"cards":   result.Cards,
		"count":   len(result.Cards),
		"warning": result.Warning,
	})
}

// handleListSessions serves the study library, newest first, with a short
// preview of each session's first card.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	sessions, err := s.sessions.Library(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error loading sessions: %v", err))
		return
	}

	out := make([]map[string]any, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		item := sessionPayload(sess)
		item["preview"] = firstChunk(sess.Flashcards)
		item["hasAdaptive"] = sess.Adaptive.Valid
		out = append(out, item)
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleSessionActions(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 2 && parts[1] == "quiz":
		switch r.Method {
		case http.MethodPost:
			s.handleStartQuiz(w, r, parts[0])
		case http.MethodGet:
			s.handleGetQuiz(w, r, parts[0])
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 3 && parts[1] == "quiz" && parts[2] == "submit":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		s.handleSubmitQuiz(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "adaptive":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		s.handleAdaptive(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// sessionRequest is the body for quiz and adaptive actions. Flashcards is
// only honored for local-only sessions, which the store cannot load.
type sessionRequest struct {
	UserID     string `json:"userId"`
	Flashcards string `json:"flashcards,omitempty"`
}

func (s *Server) loadSession(r *http.Request, id string, payload sessionRequest) (*models.StudySession, int, error) {
	if payload.UserID == "" {
		return nil, http.StatusBadRequest, errors.New("userId is required")
	}

	if strings.HasPrefix(id, models.LocalIDPrefix) {
		if strings.TrimSpace(payload.Flashcards) == "" {
			return nil, http.StatusBadRequest, errors.New("local session requires flashcards in the request body")
		}
		return &models.StudySession{
			ID:         id,
			UserID:     payload.UserID,
			Flashcards: payload.Flashcards,
		}, 0, nil
	}

	session, err := s.sessions.Get(r.Context(), id, payload.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, http.StatusNotFound, errors.New("session not found")
		}
		return nil, http.StatusInternalServerError, err
	}
	return session, 0, nil
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request, id string) {
	var payload sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	session, status, err := s.loadSession(r, id, payload)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	questions, err := s.sessions.StartQuiz(r.Context(), session)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoInput):
			writeError(w, http.StatusUnprocessableEntity, "This session has no flashcards yet.")
		case errors.Is(err, services.ErrNoQuiz):
			writeError(w, http.StatusUnprocessableEntity, "Could not parse quiz from AI output. Try again.")
		default:
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Quiz generation failed: %v", err))
		}
		return
	}

	quiz := s.quizzes.Put(session.ID, session.UserID, questions)
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": quiz.SessionID,
		"questions": quizPayload(quiz.Questions),
		"count":     len(quiz.Questions),
	})
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request, id string) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	quiz, ok := s.quizzes.Get(id, userID)
	if !ok {
		writeError(w, http.StatusNotFound, "no active quiz for this session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": quiz.SessionID,
		"questions": quizPayload(quiz.Questions),
		"count":     len(quiz.Questions),
	})
}

type submitRequest struct {
	UserID  string            `json:"userId"`
	Answers map[string]string `json:"answers"`
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request, id string) {
	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	quiz, ok := s.quizzes.Get(id, payload.UserID)
	if !ok {
		writeError(w, http.StatusConflict, "no active quiz for this session")
		return
	}

	answers := make(models.AnswerSet, len(payload.Answers))
	for key, choice := range payload.Answers {
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid answer index %q", key))
			return
		}
		answers[index] = choice
	}

	session := &models.StudySession{ID: id, UserID: payload.UserID}
	result, err := s.sessions.SubmitQuiz(r.Context(), session, quiz.Questions, answers)
	if err != nil {
		if errors.Is(err, services.ErrNoQuestions) {
			writeError(w, http.StatusConflict, "quiz has no questions to grade")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.quizzes.Delete(id)

	writeJSON(w, http.StatusOK, map[string]any{
		"score":   result.Score,
		"total":   result.Total,
		"percent": result.Percent,
		"warning": result.Warning,
	})
}

func (s *Server) handleAdaptive(w http.ResponseWriter, r *http.Request, id string) {
	var payload sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	session, status, err := s.loadSession(r, id, payload)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	result, err := s.sessions.GenerateAdaptive(r.Context(), session)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoInput):
			writeError(w, http.StatusUnprocessableEntity, "This session has no flashcards yet.")
		case errors.Is(err, services.ErrNoFlashcards):
			writeError(w, http.StatusUnprocessableEntity, "I couldn't parse any flashcards from the response. Try again.")
		default:
			writeError(w, http.StatusBadGateway, fmt.Sprintf("Adaptive flashcard generation failed: %v", err))
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cards":   result.Cards,
		"count":   len(result.Cards),
		"warning": result.Warning,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	plan, err := s.sessions.Recommendations(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNoScoredSessions) {
			writeJSON(w, http.StatusOK, map[string]any{
				"plan":    "",
				"message": "Complete at least one quiz to receive recommendations.",
			})
			return
		}
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Could not generate recommendations: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"plan": plan})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	progress, err := s.sessions.Progress(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"progress": progress})
}

func sessionPayload(session *models.StudySession) map[string]any {
	return map[string]any{
		"id":        session.ID,
		"userId":    session.UserID,
		"fileName":  session.SourceName,
		"timestamp": session.CreatedAt.Format(models.TimestampLayout),
		"score":     nullString(session.Score),
		"synced":    session.Synced,
	}
}

// quizPayload renders questions for play: correct letters stay server-side.
func quizPayload(questions []models.QuizQuestion) []map[string]any {
	out := make([]map[string]any, 0, len(questions))
	for i, question := range questions {
		out = append(out, map[string]any{
			"index":    i,
			"question": question.Question,
			"options":  question.Options,
		})
	}
	return out
}

func firstChunk(flashcards string) string {
	chunk, _, _ := strings.Cut(flashcards, "---")
	return strings.TrimSpace(chunk)
}

func nullString(v sql.NullString) any {
	if v.Valid {
		return v.String
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
