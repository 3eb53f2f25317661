package postgres

import (
	"context"
	"errors"
	"fmt"

	"trivia-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreLedger persists cumulative scores in Postgres. Increment is a single
// upsert statement, so the read-current-value and write-new-value steps are
// one atomic unit per user: two concurrent correct answers always total +2.
type ScoreLedger struct {
	pool *pgxpool.Pool
}

func NewScoreLedger(pool *pgxpool.Pool) *ScoreLedger {
	return &ScoreLedger{pool: pool}
}

func (l *ScoreLedger) Find(ctx context.Context, userID string) (domain.ScoreRecord, bool, error) {
	var record domain.ScoreRecord
	err := l.pool.QueryRow(ctx, `
		SELECT user_id, points, category, difficulty, updated_at
		FROM scores
		WHERE user_id = $1
	`, userID).Scan(&record.UserID, &record.Points, &record.Category, &record.Difficulty, &record.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScoreRecord{}, false, nil
	}
	if err != nil {
		return domain.ScoreRecord{}, false, fmt.Errorf("find score: %w", err)
	}
	return record, true, nil
}

func (l *ScoreLedger) Increment(ctx context.Context, userID string, category int, difficulty string) (domain.ScoreRecord, error) {
	var record domain.ScoreRecord
	err := l.pool.QueryRow(ctx, `
		INSERT INTO scores (user_id, points, category, difficulty, updated_at)
		VALUES ($1, 1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET points = scores.points + 1,
		    category = EXCLUDED.category,
		    difficulty = EXCLUDED.difficulty,
		    updated_at = now()
		RETURNING user_id, points, category, difficulty, updated_at
	`, userID, category, difficulty).Scan(&record.UserID, &record.Points, &record.Category, &record.Difficulty, &record.UpdatedAt)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("increment score: %w", err)
	}
	return record, nil
}

// TopScores returns the highest accumulated scores joined with user handles.
func (l *ScoreLedger) TopScores(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT s.user_id, u.username, s.points
		FROM scores s
		JOIN users u ON u.id = s.user_id
		ORDER BY s.points DESC, u.username ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.Points); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
