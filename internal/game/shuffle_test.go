package game_test

import (
	"math/rand"
	"sort"
	"testing"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/game"
)

func TestShufflePreservesAnswerMultiset(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	question := domain.Question{
		CorrectAnswer:    "Paris",
		IncorrectAnswers: []string{"London", "Berlin", "Madrid"},
	}

	for i := 0; i < 100; i++ {
		answers := game.ShuffleAnswers(rnd, question)
		if len(answers) != 4 {
			t.Fatalf("expected 4 answers, got %d", len(answers))
		}
		sorted := append([]string(nil), answers...)
		sort.Strings(sorted)
		want := []string{"Berlin", "London", "Madrid", "Paris"}
		for j := range want {
			if sorted[j] != want[j] {
				t.Fatalf("answer multiset changed: %v", answers)
			}
		}
	}
}

func TestShuffleDoesNotMutateQuestion(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	question := domain.Question{
		CorrectAnswer:    "Paris",
		IncorrectAnswers: []string{"London", "Berlin", "Madrid"},
	}

	_ = game.ShuffleAnswers(rnd, question)
	if question.IncorrectAnswers[0] != "London" || question.IncorrectAnswers[2] != "Madrid" {
		t.Fatalf("question distractors mutated: %v", question.IncorrectAnswers)
	}
}

// The correct answer should land in every position over repeated shuffles,
// with no position heavily favored. Statistical, so the bounds are loose.
func TestShuffleCorrectAnswerPositionSpread(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	question := domain.Question{
		CorrectAnswer:    "Paris",
		IncorrectAnswers: []string{"London", "Berlin", "Madrid"},
	}

	const runs = 600
	counts := make([]int, 4)
	for i := 0; i < runs; i++ {
		answers := game.ShuffleAnswers(rnd, question)
		for pos, answer := range answers {
			if answer == "Paris" {
				counts[pos]++
			}
		}
	}

	for pos, count := range counts {
		if count < 60 || count > 300 {
			t.Fatalf("position %d hit %d times out of %d, expected roughly %d: %v", pos, count, runs, runs/4, counts)
		}
	}
}
