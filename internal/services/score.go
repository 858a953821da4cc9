package services

import (
	"errors"
	"math"
	"strings"

	"studyhub/internal/models"
)

// ErrNoQuestions is returned when a quiz with zero questions is graded.
// Entering play requires at least one parsed question, so this only guards
// against misuse.
var ErrNoQuestions = errors.New("quiz has no questions to grade")

// Grade counts an answer as correct when the selected option string starts
// with the question's correct letter (case-normalized, periods stripped).
// Unanswered questions never count. Grading is pure and idempotent.
func Grade(questions []models.QuizQuestion, answers models.AnswerSet) (score, total int, err error) {
	total = len(questions)
	if total == 0 {
		return 0, 0, ErrNoQuestions
	}

	for i, question := range questions {
		answer, ok := answers[i]
		if !ok || answer == "" {
			continue
		}
		letter := strings.ToUpper(strings.TrimSpace(question.Correct))
		letter = strings.ReplaceAll(letter, ".", "")
		if letter != "" && strings.HasPrefix(answer, letter) {
			score++
		}
	}
	return score, total, nil
}

// Percent converts a score/total pair to a rounded 0-100 percentage.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
