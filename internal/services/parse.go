package services

import (
	"strings"

	"studyhub/internal/models"
)

// The model's reply is not guaranteed well-formed. Both parsers split on the
// literal --- delimiter and process each chunk independently; a chunk that
// does not match the expected grammar is dropped silently rather than
// aborting the whole parse.

const chunkDelimiter = "---"

// ParseFlashcards converts a raw Q:/A:/--- reply into flashcards. A chunk
// yields a card only if it contains an A: or Answer: marker and both the
// question and answer are non-empty after label stripping.
func ParseFlashcards(raw string) []models.Flashcard {
	var cards []models.Flashcard
	for _, chunk := range strings.Split(raw, chunkDelimiter) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		var questionPart, answerPart string
		if idx := strings.Index(chunk, "A:"); idx != -1 {
			questionPart, answerPart = chunk[:idx], chunk[idx+len("A:"):]
		} else if idx := strings.Index(chunk, "Answer:"); idx != -1 {
			questionPart, answerPart = chunk[:idx], chunk[idx+len("Answer:"):]
		} else {
			continue
		}

		question := strings.ReplaceAll(questionPart, "Q:", "")
		question = strings.TrimSpace(strings.ReplaceAll(question, "Question:", ""))
		answer := strings.TrimSpace(answerPart)
		if question == "" || answer == "" {
			continue
		}
		cards = append(cards, models.Flashcard{Question: question, Answer: answer})
	}
	return cards
}

// ParseQuiz converts a raw Q:/A)-D)/Correct: reply into quiz questions. A
// chunk yields a question only if question text, at least one option and a
// correct letter are all present.
func ParseQuiz(raw string) []models.QuizQuestion {
	var questions []models.QuizQuestion
	for _, chunk := range strings.Split(raw, chunkDelimiter) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		var question, correct string
		var options []string
		for _, line := range strings.Split(chunk, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			switch {
			case strings.HasPrefix(line, "Q:"):
				question = strings.TrimSpace(line[len("Q:"):])
			case isOptionLine(line):
				options = append(options, line)
			case strings.HasPrefix(strings.ToLower(line), "correct"):
				correct = cleanCorrectLetter(line)
			}
		}

		if question == "" || len(options) == 0 || correct == "" {
			continue
		}
		questions = append(questions, models.QuizQuestion{
			Question: question,
			Options:  options,
			Correct:  correct,
		})
	}
	return questions
}

func isOptionLine(line string) bool {
	if len(line) < 2 {
		return false
	}
	switch line[:2] {
	case "A)", "B)", "C)", "D)":
		return true
	}
	return false
}

// cleanCorrectLetter takes the text after the last colon on a Correct line,
// stripping whitespace and periods.
func cleanCorrectLetter(line string) string {
	parts := strings.Split(line, ":")
	letter := strings.TrimSpace(parts[len(parts)-1])
	return strings.ReplaceAll(letter, ".", "")
}
