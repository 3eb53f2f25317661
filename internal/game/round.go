package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// Event types broadcast to subscribed connections.
const (
	EventGameStarted = "gameStarted"
	EventQuestion    = "question"
	EventGameEnd     = "gameEnd"
)

// Event is a round lifecycle notification fanned out to every subscriber.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// QuestionView is the client-facing form of a question: the prompt and the
// shuffled answers, without any marker of which one is correct.
type QuestionView struct {
	Index   int      `json:"index"`
	Prompt  string   `json:"prompt"`
	Answers []string `json:"answers"`
	Seconds int      `json:"seconds"`
}

// Settings fixes the shape of a round.
type Settings struct {
	Length         int
	QuestionBudget time.Duration
	AdvanceDelay   time.Duration
}

// DefaultSettings matches the classic game: ten questions, ten seconds of
// deliberation each, one second of feedback before advancing.
func DefaultSettings() Settings {
	return Settings{
		Length:         10,
		QuestionBudget: 10 * time.Second,
		AdvanceDelay:   time.Second,
	}
}

// Round owns all state for the active question sequence: the fetched batch,
// the current index, the per-round score map, and the countdown timers. It is
// an injected object, not a package-level singleton, so independent rounds
// never cross-contaminate.
//
// All mutation happens under mu. Timer callbacks carry the generation they
// were armed for and become no-ops once a newer round starts, so a stale
// countdown can never fire against reset state.
type Round struct {
	settings    Settings
	source      QuestionSource
	adjudicator *Adjudicator

	mu             sync.Mutex
	rnd            *rand.Rand
	active         bool
	index          int
	category       int
	difficulty     string
	questions      []domain.Question
	scores         map[string]int
	generation     uint64
	questionTimer  *time.Timer
	advanceTimer   *time.Timer
	advancePending bool
	subscribers    map[chan Event]struct{}
}

func NewRound(settings Settings, source QuestionSource, adjudicator *Adjudicator) *Round {
	if settings.Length <= 0 {
		settings.Length = DefaultSettings().Length
	}
	if settings.QuestionBudget <= 0 {
		settings.QuestionBudget = DefaultSettings().QuestionBudget
	}
	if settings.AdvanceDelay <= 0 {
		settings.AdvanceDelay = DefaultSettings().AdvanceDelay
	}
	return &Round{
		settings:    settings,
		source:      source,
		adjudicator: adjudicator,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		scores:      make(map[string]int),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Start begins a new round for the given category and difficulty. Any prior
// round is abandoned: its pending timers are cancelled before the question
// batch is requested. The transition to the first question only fires once a
// non-empty batch is available; a provider failure leaves the round inactive.
func (r *Round) Start(ctx context.Context, category int, difficulty string) error {
	if category <= 0 || difficulty == "" {
		return domain.ErrValidation
	}

	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.cancelTimersLocked()
	r.active = false
	r.mu.Unlock()

	questions, err := r.source.FetchBatch(ctx, category, difficulty, r.settings.Length)
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: empty batch", domain.ErrUpstreamFetch)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen {
		// A newer start superseded this one while we were fetching.
		return nil
	}
	r.active = true
	r.index = 0
	r.category = category
	r.difficulty = difficulty
	r.questions = questions
	r.scores = make(map[string]int)
	r.broadcastLocked(Event{Type: EventGameStarted, Payload: r.snapshotLocked()})
	r.presentLocked(gen)
	return nil
}

// Submit adjudicates an explicit answer for the current question. The
// expected correct answer is resolved from the server-held batch by question
// index; whatever the client claims the correct answer to be is ignored.
//
// Progression does not wait for the adjudication outcome: the first
// submission for a question schedules the advance after the feedback delay
// regardless of whether scoring succeeded.
func (r *Round) Submit(ctx context.Context, userID string, questionIndex int, selected string) (domain.Verdict, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return domain.Verdict{}, domain.ErrRoundNotActive
	}
	if questionIndex != r.index {
		r.mu.Unlock()
		return domain.Verdict{}, domain.ErrQuestionNotFound
	}
	gen := r.generation
	idx := r.index
	expected := r.questions[idx].CorrectAnswer
	category := r.category
	difficulty := r.difficulty
	r.mu.Unlock()

	// Ledger I/O happens outside the lock so submissions from different
	// users can interleave freely.
	verdict, err := r.adjudicator.Adjudicate(ctx, userID, selected, expected, category, difficulty)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen || !r.active || r.index != idx {
		return verdict, err
	}
	if err == nil {
		r.scores[userID] = verdict.NewScore
	}
	if !r.advancePending {
		r.advancePending = true
		if r.questionTimer != nil {
			r.questionTimer.Stop()
			r.questionTimer = nil
		}
		r.advanceTimer = time.AfterFunc(r.settings.AdvanceDelay, func() {
			r.advanceAfter(gen, idx)
		})
	}
	return verdict, err
}

// State returns a snapshot of the current round.
func (r *Round) State() domain.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Subscribe registers a listener for round events. The caller must invoke
// the returned cancel function to avoid leaks.
func (r *Round) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// presentLocked shuffles and announces the current question and arms its
// countdown. Callers hold mu.
func (r *Round) presentLocked(gen uint64) {
	q := r.questions[r.index]
	answers := ShuffleAnswers(r.rnd, q)
	r.broadcastLocked(Event{Type: EventQuestion, Payload: QuestionView{
		Index:   r.index,
		Prompt:  q.Prompt,
		Answers: answers,
		Seconds: int(r.settings.QuestionBudget / time.Second),
	}})
	r.advancePending = false
	idx := r.index
	r.questionTimer = time.AfterFunc(r.settings.QuestionBudget, func() {
		r.expire(gen, idx)
	})
}

// expire fires when the countdown runs out with no submission. The question
// is skipped with no adjudication.
func (r *Round) expire(gen uint64, idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen || !r.active || r.index != idx || r.advancePending {
		return
	}
	r.advanceLocked(gen)
}

func (r *Round) advanceAfter(gen uint64, idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen || !r.active || r.index != idx {
		return
	}
	r.advanceLocked(gen)
}

// advanceLocked moves to the next question, or ends the round when the index
// reaches the configured length. Callers hold mu.
func (r *Round) advanceLocked(gen uint64) {
	r.cancelTimersLocked()
	r.index++
	// A short batch from the provider ends the round early.
	if r.index >= r.settings.Length || r.index >= len(r.questions) {
		r.active = false
		final := make(map[string]int, len(r.scores))
		for userID, score := range r.scores {
			final[userID] = score
		}
		r.broadcastLocked(Event{Type: EventGameEnd, Payload: map[string]any{"finalScores": final}})
		return
	}
	r.presentLocked(gen)
}

func (r *Round) cancelTimersLocked() {
	if r.questionTimer != nil {
		r.questionTimer.Stop()
		r.questionTimer = nil
	}
	if r.advanceTimer != nil {
		r.advanceTimer.Stop()
		r.advanceTimer = nil
	}
	r.advancePending = false
}

func (r *Round) snapshotLocked() domain.GameState {
	scores := make(map[string]int, len(r.scores))
	for userID, score := range r.scores {
		scores[userID] = score
	}
	return domain.GameState{
		Active:        r.active,
		QuestionIndex: r.index,
		Category:      r.category,
		Difficulty:    r.difficulty,
		Scores:        scores,
	}
}

func (r *Round) broadcastLocked(event Event) {
	for ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscribers lose the oldest event rather than blocking the round.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
