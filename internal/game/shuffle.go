package game

import (
	"math/rand"

	"trivia-quiz-service/internal/domain"
)

// ShuffleAnswers produces the presentation order for a question: the correct
// answer and all distractors, Fisher-Yates shuffled. The returned slice is a
// fresh copy; the question itself is never mutated.
func ShuffleAnswers(rnd *rand.Rand, q domain.Question) []string {
	answers := make([]string, 0, len(q.IncorrectAnswers)+1)
	answers = append(answers, q.CorrectAnswer)
	answers = append(answers, q.IncorrectAnswers...)
	for i := len(answers) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		answers[i], answers[j] = answers[j], answers[i]
	}
	return answers
}
