// Package activity runs the round loop of one pipeline stage. A Controller
// is created by the session orchestrator, owns its RoundState exclusively,
// hands one ActivityRecord back when it completes and is then discarded.
//
// Controllers are not safe for concurrent use: every method and every
// callback runs on the owning session's loop.
package activity

import (
	"context"
	"log"
	"time"

	"github.com/speech-steps/backend/internal/config"
	"github.com/speech-steps/backend/internal/content"
	"github.com/speech-steps/backend/internal/media"
	"github.com/speech-steps/backend/internal/models"
	"github.com/speech-steps/backend/internal/rounds"
)

type State string

const (
	StateAwaitingContent State = "awaiting_content"
	StateRoundInProgress State = "round_in_progress"
	StateRoundResolved   State = "round_resolved"
	StateComplete        State = "activity_complete"
)

// Loop is the part of the session loop a controller schedules work on.
type Loop interface {
	// After runs fn on the loop once d has elapsed, unless the session is
	// gone by then.
	After(d time.Duration, fn func())
	// Go runs op off the loop; the continuation it returns runs on the loop.
	Go(op func(ctx context.Context) func())
}

type ContentSource interface {
	LoadPool(ctx context.Context, category, subcategory string, opts content.PoolOptions) (models.ContentPool, error)
}

type Scorer interface {
	Compare(ctx context.Context, audio []byte, category, subcategory string) (*models.AudioComparison, error)
}

// Hooks is how a controller reports back to the orchestrator.
type Hooks interface {
	// Progress reports that done of total steps of the activity are behind.
	Progress(index, done, total int)
	// Complete hands over the finished record.
	Complete(index int, record models.ActivityRecord)
}

// Env is the session context handed to every controller. The orchestrator
// owns it; controllers only read it.
type Env struct {
	SessionID string
	Topic     models.SessionTopic
	Loop      Loop
	Content   ContentSource
	Scorer    Scorer
	Media     media.Gateway
	Presenter media.Presenter
	Rounds    *rounds.Generator
	Paths     models.AssetPaths
	Timings   config.Timings
}

type Controller struct {
	env   *Env
	index int
	spec  models.ActivitySpec
	hooks Hooks

	state        State
	pool         models.ContentPool
	round        models.RoundState
	previousSlot int
	inputOpen    bool
	record       models.ActivityRecord
}

func New(env *Env, index int, spec models.ActivitySpec, hooks Hooks) *Controller {
	return &Controller{
		env:          env,
		index:        index,
		spec:         spec,
		hooks:        hooks,
		previousSlot: models.NoSlot,
		record:       models.ActivityRecord{Kind: spec.Kind, AttemptsPerRound: []int{}},
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Round() models.RoundState {
	return c.round
}

// Start requests the activity's content, or goes straight to the first
// round when the activity shows no choices.
func (c *Controller) Start() {
	c.state = StateAwaitingContent
	c.pool = models.ContentPool{Subcategory: c.env.Topic.Subcategory}

	if !c.spec.NeedsContent() {
		c.beginRound()
		return
	}

	topic := c.env.Topic
	opts := content.PoolOptions{
		Distractors: c.spec.ChoiceCount > 1,
		Fallback:    c.spec.ChoiceCount > 1,
	}
	c.env.Loop.Go(func(ctx context.Context) func() {
		pool, err := c.env.Content.LoadPool(ctx, topic.Category, topic.Subcategory, opts)
		return func() { c.onContent(pool, err) }
	})
}

func (c *Controller) onContent(pool models.ContentPool, err error) {
	if c.state != StateAwaitingContent {
		return
	}
	if err != nil {
		log.Printf("[activity] session %s activity %d: continuing with %d targets and %d distractors: %v",
			c.env.SessionID, c.index+1, len(pool.Targets), len(pool.Distractors), err)
	}
	if pool.Subcategory == "" {
		pool.Subcategory = c.env.Topic.Subcategory
	}
	c.pool = pool
	c.beginRound()
}

func (c *Controller) beginRound() {
	c.state = StateRoundInProgress
	c.inputOpen = false

	switch c.spec.Kind {
	case models.KindListening:
		c.startListeningRound()
	case models.KindSpeechRecognition:
		c.startSpeechRound()
	default:
		c.startChoiceRound()
	}
}

// HandleInput accepts one selection. Selections arriving while input is
// closed, for another round, or outside the displayed slots are ignored and
// do not count as attempts.
func (c *Controller) HandleInput(ev models.InputEvent) {
	if ev.Kind != models.InputSelect {
		return
	}
	if c.state != StateRoundInProgress || !c.inputOpen || ev.RoundID != c.round.ID {
		return
	}
	if ev.Slot < 0 || ev.Slot >= len(c.round.Candidates) {
		return
	}
	c.handleSelection(ev.Slot)
}

// resolveRound logs the finished round and schedules the transition once
// the feedback window has elapsed.
func (c *Controller) resolveRound(feedback time.Duration) {
	c.state = StateRoundResolved
	c.inputOpen = false
	c.record.AppendRound(c.round.AttemptsThisRound)
	c.afterRound(feedback, c.advance)
}

func (c *Controller) advance() {
	completed := c.record.RoundsCompleted()
	if completed < c.spec.RoundsRequired {
		c.hooks.Progress(c.index, completed, c.spec.RoundsRequired)
		c.beginRound()
		return
	}

	c.state = StateComplete
	record := c.record
	record.AttemptsPerRound = append([]int(nil), c.record.AttemptsPerRound...)
	c.hooks.Complete(c.index, record)
}

// afterRound schedules fn for the current round. If the round has moved on
// or the activity completed by the time it fires, fn is skipped.
func (c *Controller) afterRound(d time.Duration, fn func()) {
	roundID := c.round.ID
	c.env.Loop.After(d, func() {
		if c.current(roundID) {
			fn()
		}
	})
}

func (c *Controller) current(roundID string) bool {
	return c.state != StateComplete && c.round.ID == roundID
}

func (c *Controller) present(instr models.Instruction) {
	instr.SessionID = c.env.SessionID
	instr.Activity = c.index
	instr.ActivityKind = c.spec.Kind
	if instr.RoundID == "" {
		instr.RoundID = c.round.ID
	}
	if instr.Round == 0 {
		instr.Round = c.round.Number
	}
	c.env.Presenter.Present(instr)
}

func (c *Controller) roundNumber() int {
	return c.record.RoundsCompleted() + 1
}
