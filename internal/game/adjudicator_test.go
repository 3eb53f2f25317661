package game_test

import (
	"context"
	"errors"
	"testing"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/game"
	"trivia-quiz-service/internal/infra/memory"
)

func TestFirstCorrectAnswerCreatesRecord(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewScoreLedger()
	adjudicator := game.NewAdjudicator(ledger)

	verdict, err := adjudicator.Adjudicate(ctx, "alice", "Paris", "Paris", 9, "easy")
	if err != nil {
		t.Fatalf("adjudicate failed: %v", err)
	}
	if !verdict.Correct || verdict.NewScore != 1 {
		t.Fatalf("expected correct with score 1, got %+v", verdict)
	}

	record, ok, err := ledger.Find(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("expected record, ok=%v err=%v", ok, err)
	}
	if record.Points != 1 || record.Category != 9 || record.Difficulty != "easy" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestIncorrectAnswerLeavesScoreUnchanged(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewScoreLedger()
	adjudicator := game.NewAdjudicator(ledger)

	if _, err := adjudicator.Adjudicate(ctx, "alice", "Paris", "Paris", 9, "easy"); err != nil {
		t.Fatalf("adjudicate failed: %v", err)
	}

	verdict, err := adjudicator.Adjudicate(ctx, "alice", "London", "Paris", 9, "easy")
	if err != nil {
		t.Fatalf("adjudicate failed: %v", err)
	}
	if verdict.Correct || verdict.NewScore != 1 {
		t.Fatalf("expected incorrect with unchanged score 1, got %+v", verdict)
	}
}

func TestIncorrectAnswerWithNoRecordReportsZero(t *testing.T) {
	adjudicator := game.NewAdjudicator(memory.NewScoreLedger())

	verdict, err := adjudicator.Adjudicate(context.Background(), "bob", "London", "Paris", 9, "easy")
	if err != nil {
		t.Fatalf("adjudicate failed: %v", err)
	}
	if verdict.Correct || verdict.NewScore != 0 {
		t.Fatalf("expected incorrect with score 0, got %+v", verdict)
	}
}

func TestMissingUserRejectedWithoutPersistence(t *testing.T) {
	ledger := memory.NewScoreLedger()
	adjudicator := game.NewAdjudicator(ledger)

	for _, userID := range []string{"", "   "} {
		_, err := adjudicator.Adjudicate(context.Background(), userID, "Paris", "Paris", 9, "easy")
		if !errors.Is(err, domain.ErrInvalidUser) {
			t.Fatalf("expected ErrInvalidUser for %q, got %v", userID, err)
		}
	}

	entries, err := ledger.TopScores(context.Background(), 10)
	if err != nil {
		t.Fatalf("top scores: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no records created, got %+v", entries)
	}
}

func TestSerializedCorrectAnswersAccumulate(t *testing.T) {
	ctx := context.Background()
	adjudicator := game.NewAdjudicator(memory.NewScoreLedger())

	for i := 1; i <= 7; i++ {
		verdict, err := adjudicator.Adjudicate(ctx, "alice", "Paris", "Paris", 9, "hard")
		if err != nil {
			t.Fatalf("adjudicate %d: %v", i, err)
		}
		if verdict.NewScore != i {
			t.Fatalf("expected score %d, got %d", i, verdict.NewScore)
		}
		// Interleave another user; alice's count must be unaffected.
		if _, err := adjudicator.Adjudicate(ctx, "bob", "Paris", "Paris", 9, "hard"); err != nil {
			t.Fatalf("interleaved adjudicate: %v", err)
		}
	}
}

type failingLedger struct{}

func (failingLedger) Find(context.Context, string) (domain.ScoreRecord, bool, error) {
	return domain.ScoreRecord{}, false, errors.New("ledger down")
}

func (failingLedger) Increment(context.Context, string, int, string) (domain.ScoreRecord, error) {
	return domain.ScoreRecord{}, errors.New("ledger down")
}

func TestLedgerFailureSurfacesPersistenceError(t *testing.T) {
	adjudicator := game.NewAdjudicator(failingLedger{})

	_, err := adjudicator.Adjudicate(context.Background(), "alice", "Paris", "Paris", 9, "easy")
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence on increment failure, got %v", err)
	}

	_, err = adjudicator.Adjudicate(context.Background(), "alice", "London", "Paris", 9, "easy")
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence on read failure, got %v", err)
	}
}
