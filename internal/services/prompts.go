package services

import (
	"fmt"
	"strings"

	"studyhub/internal/models"
)

// promptInputLimit caps how much study text is embedded into the flashcard
// prompt, bounding cost and latency on large documents.
const promptInputLimit = 8000

// truncateForPrompt returns at most promptInputLimit characters of input,
// counted in runes so multi-byte text is never cut mid-character.
func truncateForPrompt(input string) string {
	runes := []rune(input)
	if len(runes) <= promptInputLimit {
		return input
	}
	return string(runes[:promptInputLimit])
}

// FlashcardPrompt instructs the model to turn study text into 8-12 Q/A
// flashcards in the Q:/A:/--- grammar.
func FlashcardPrompt(text string) string {
	return fmt.Sprintf(`You are a helpful AI tutor. Create 8-12 concise Q&A flashcards from this study text.
Use EXACTLY this format and nothing else:

Q: [question]
A: [answer]
---

Study text (truncated):
%s`, truncateForPrompt(text))
}

// QuizPrompt instructs the model to build 5 four-option multiple-choice
// questions from the raw flashcard text of a session.
func QuizPrompt(flashcards string) string {
	return fmt.Sprintf(`Create 5 multiple-choice questions from these flashcards:
%s

Format exactly like this:
Q: What is ...?
A) option1
B) option2
C) option3
D) option4
Correct: [A/B/C/D]
---`, flashcards)
}

// AdaptivePrompt instructs the model to infer weak areas from prior flashcards
// and produce 5-10 harder follow-up cards in the same Q/A grammar.
func AdaptivePrompt(flashcards string) string {
	return fmt.Sprintf(`You are an adaptive learning AI. From the following flashcards, identify weak or confusing areas.
Then generate 5-10 new flashcards focusing on those topics, phrased in a slightly more challenging way.

%s

Format:
Q: [question]
A: [answer]
---`, flashcards)
}

// RecommendationPrompt asks the model to act as a study coach over the user's
// scored session history.
func RecommendationPrompt(history string) string {
	return fmt.Sprintf(`You are a study coach analyzing the user's learning history.
Review the quiz scores below and provide:
- A summary of their weak points
- 3 recommended topics or files to revisit
- 2 encouragement tips to improve consistency

Study History:
%s

Write as short bullet points.`, history)
}

// HistorySummary renders one "name — score" line per scored session for the
// recommendation prompt. Sessions without a score are skipped.
func HistorySummary(sessions []models.StudySession) string {
	var lines []string
	for _, sess := range sessions {
		if !sess.Score.Valid || sess.Score.String == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s — score %s", sess.SourceName, sess.Score.String))
	}
	return strings.Join(lines, "\n")
}
