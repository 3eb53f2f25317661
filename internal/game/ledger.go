package game

import (
	"context"

	"trivia-quiz-service/internal/domain"
)

// ScoreLedger is the persisted authority for a user's cumulative score.
// Increment must be atomic with respect to concurrent callers for the same
// user: two overlapping correct answers always total +2, never +1.
type ScoreLedger interface {
	// Find returns the user's score record, reporting false when none exists yet.
	Find(ctx context.Context, userID string) (domain.ScoreRecord, bool, error)
	// Increment adds one point, creating the record at 1 on first use, and
	// overwrites the record's category and difficulty with the round's values.
	Increment(ctx context.Context, userID string, category int, difficulty string) (domain.ScoreRecord, error)
}

// LeaderboardSource exposes the top accumulated scores for read-only surfaces.
type LeaderboardSource interface {
	TopScores(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// QuestionSource supplies an ordered question batch for a category and
// difficulty selection. Implementations surface provider failures as-is; the
// round controller does not retry.
type QuestionSource interface {
	FetchBatch(ctx context.Context, category int, difficulty string, amount int) ([]domain.Question, error)
}
