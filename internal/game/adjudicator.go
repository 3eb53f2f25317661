package game

import (
	"context"
	"fmt"
	"strings"

	"trivia-quiz-service/internal/domain"
)

// Adjudicator decides whether a submitted answer is correct and drives the
// score ledger. It never touches round state; the round controller owns that.
type Adjudicator struct {
	ledger ScoreLedger
}

func NewAdjudicator(ledger ScoreLedger) *Adjudicator {
	return &Adjudicator{ledger: ledger}
}

// Adjudicate compares the submitted answer to the expected correct answer and
// updates the ledger on a match. The expected answer is always resolved
// server-side by the caller, never taken from the client.
//
// A correct answer increments the user's score by exactly one, creating the
// record lazily at 1. An incorrect answer performs no mutation and reports
// the existing score, or 0 when no record exists.
func (a *Adjudicator) Adjudicate(ctx context.Context, userID, submitted, expected string, category int, difficulty string) (domain.Verdict, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Verdict{}, domain.ErrInvalidUser
	}

	if submitted == expected {
		record, err := a.ledger.Increment(ctx, userID, category, difficulty)
		if err != nil {
			return domain.Verdict{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		return domain.Verdict{Correct: true, NewScore: record.Points}, nil
	}

	record, ok, err := a.ledger.Find(ctx, userID)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !ok {
		return domain.Verdict{Correct: false, NewScore: 0}, nil
	}
	return domain.Verdict{Correct: false, NewScore: record.Points}, nil
}
