package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/game"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches provider batches in Redis so multiple instances can
// share fetched question sets. Batches are stored as JSON under
// trivia:batch:{category}:{difficulty}:{amount}; the correct answer is
// serialized here (server-side only, never sent over the websocket).
type QuestionCache struct {
	client *redis.Client
	source game.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

// cachedQuestion carries the full question, including fields the public JSON
// shape of domain.Question deliberately omits.
type cachedQuestion struct {
	Index            int      `json:"index"`
	Prompt           string   `json:"prompt"`
	CorrectAnswer    string   `json:"correctAnswer"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
}

func NewQuestionCache(client *redis.Client, source game.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) FetchBatch(ctx context.Context, category int, difficulty string, amount int) ([]domain.Question, error) {
	key := c.key(category, difficulty, amount)

	if batch, ok := c.lookup(ctx, key); ok {
		return batch, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if batch, ok := c.lookup(ctx, key); ok {
			return batch, nil
		}

		questions, err := c.source.FetchBatch(ctx, category, difficulty, amount)
		if err != nil {
			return nil, err
		}

		cached := make([]cachedQuestion, len(questions))
		for i, q := range questions {
			cached[i] = cachedQuestion{
				Index:            q.Index,
				Prompt:           q.Prompt,
				CorrectAnswer:    q.CorrectAnswer,
				IncorrectAnswers: q.IncorrectAnswers,
			}
		}
		if data, err := json.Marshal(cached); err == nil {
			// Cache write is best-effort; a miss next time just refetches.
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var cached []cachedQuestion
	if err := json.Unmarshal(data, &cached); err != nil || len(cached) == 0 {
		return nil, false
	}
	questions := make([]domain.Question, len(cached))
	for i, q := range cached {
		questions[i] = domain.Question{
			Index:            q.Index,
			Prompt:           q.Prompt,
			CorrectAnswer:    q.CorrectAnswer,
			IncorrectAnswers: q.IncorrectAnswers,
		}
	}
	return questions, true
}

func (c *QuestionCache) key(category int, difficulty string, amount int) string {
	return fmt.Sprintf("trivia:batch:%d:%s:%d", category, difficulty, amount)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
