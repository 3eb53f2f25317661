package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// ScoreLedger is an in-memory implementation of game.ScoreLedger, used when
// no Postgres is configured and throughout the unit tests. Increment is
// atomic under the mutex, so concurrent correct answers for the same user
// always accumulate.
type ScoreLedger struct {
	mu      sync.Mutex
	clock   func() time.Time
	records map[string]domain.ScoreRecord
}

func NewScoreLedger() *ScoreLedger {
	return &ScoreLedger{
		clock:   time.Now,
		records: make(map[string]domain.ScoreRecord),
	}
}

// NewScoreLedgerWithClock allows deterministic timestamps in tests.
func NewScoreLedgerWithClock(clock func() time.Time) *ScoreLedger {
	ledger := NewScoreLedger()
	ledger.clock = clock
	return ledger
}

func (l *ScoreLedger) Find(_ context.Context, userID string) (domain.ScoreRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[userID]
	return record, ok, nil
}

func (l *ScoreLedger) Increment(_ context.Context, userID string, category int, difficulty string) (domain.ScoreRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[userID]
	if !ok {
		record = domain.ScoreRecord{UserID: userID}
	}
	record.Points++
	record.Category = category
	record.Difficulty = difficulty
	record.UpdatedAt = l.clock()
	l.records[userID] = record
	return record, nil
}

// TopScores returns the highest accumulated scores. Without a user store to
// join against, the handle falls back to the user id.
func (l *ScoreLedger) TopScores(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]domain.LeaderboardEntry, 0, len(l.records))
	for _, record := range l.records {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:   record.UserID,
			Username: record.UserID,
			Points:   record.Points,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
