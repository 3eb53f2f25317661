package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/game"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches provider batches per (category, difficulty) with a
// TTL to avoid hammering the trivia provider when several rounds pick the
// same selection. Concurrent misses for the same key collapse into a single
// upstream fetch.
type QuestionCache struct {
	source game.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBatch
}

type cachedBatch struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(source game.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBatch),
	}
}

func (c *QuestionCache) FetchBatch(ctx context.Context, category int, difficulty string, amount int) ([]domain.Question, error) {
	key := batchKey(category, difficulty, amount)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.source.FetchBatch(ctx, category, difficulty, amount)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedBatch{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func batchKey(category int, difficulty string, amount int) string {
	return fmt.Sprintf("%d:%s:%d", category, difficulty, amount)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticQuestionSource serves fixed batches keyed by category and difficulty
// (useful for tests and for running without a provider).
type StaticQuestionSource struct {
	batches map[string][]domain.Question
}

func NewStaticQuestionSource(batches map[string][]domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{batches: batches}
}

func (s *StaticQuestionSource) FetchBatch(_ context.Context, category int, difficulty string, _ int) ([]domain.Question, error) {
	if batch, ok := s.batches[fmt.Sprintf("%d:%s", category, difficulty)]; ok {
		return batch, nil
	}
	return nil, domain.ErrUpstreamFetch
}
