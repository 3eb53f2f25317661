package domain

import "time"

// User is a registered player identity. The Password field carries the
// bcrypt hash; it is only ever read by the auth layer.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
}

// ScoreRecord is one user's cumulative correct-answer count. There is a
// single record per user; points only ever grow, by one per correct answer.
// Category and difficulty track the round the last point was earned in.
type ScoreRecord struct {
	UserID     string    `json:"userId"`
	Points     int       `json:"points"`
	Category   int       `json:"category"`
	Difficulty string    `json:"difficulty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LeaderboardEntry joins a score record with its owner's handle.
type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// Question is one trivia question fetched from the provider. Questions live
// only for the duration of a round and are never persisted. The correct
// answer stays server-side and is deliberately excluded from JSON.
type Question struct {
	Index            int      `json:"index"`
	Prompt           string   `json:"prompt"`
	CorrectAnswer    string   `json:"-"`
	IncorrectAnswers []string `json:"-"`
}

// Verdict is the outcome of adjudicating one submitted answer.
type Verdict struct {
	Correct  bool `json:"correct"`
	NewScore int  `json:"newScore"`
}

// GameState is the client-visible snapshot of the active round.
type GameState struct {
	Active        bool           `json:"isActive"`
	QuestionIndex int            `json:"currentQuestionIndex"`
	Category      int            `json:"category"`
	Difficulty    string         `json:"difficulty"`
	Scores        map[string]int `json:"scores"`
}
