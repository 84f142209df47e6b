package activity

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/speech-steps/backend/internal/config"
	"github.com/speech-steps/backend/internal/content"
	"github.com/speech-steps/backend/internal/media"
	"github.com/speech-steps/backend/internal/models"
	"github.com/speech-steps/backend/internal/rounds"
)

// ── Fakes ─────────────────────────────────────────────────

// queueLoop runs scheduled work in FIFO order when drained, ignoring delays.
type queueLoop struct {
	queue []func()
}

func (l *queueLoop) After(_ time.Duration, fn func()) {
	l.queue = append(l.queue, fn)
}

func (l *queueLoop) Go(op func(ctx context.Context) func()) {
	next := op(context.Background())
	l.queue = append(l.queue, next)
}

func (l *queueLoop) drain(t *testing.T) {
	t.Helper()
	for steps := 0; len(l.queue) > 0; steps++ {
		if steps > 10000 {
			t.Fatal("loop did not settle")
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		fn()
	}
}

// runUntil runs queued work until done reports true.
func (l *queueLoop) runUntil(t *testing.T, done func() bool) {
	t.Helper()
	for !done() {
		if len(l.queue) == 0 {
			t.Fatal("loop settled before the condition held")
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		fn()
	}
}

type fakeContent struct {
	pool models.ContentPool
	err  error
	opts []content.PoolOptions
}

func (f *fakeContent) LoadPool(_ context.Context, _, _ string, opts content.PoolOptions) (models.ContentPool, error) {
	f.opts = append(f.opts, opts)
	return f.pool, f.err
}

type scoreResult struct {
	cmp *models.AudioComparison
	err error
}

type fakeScorer struct {
	results []scoreResult
	calls   int
}

func (f *fakeScorer) Compare(_ context.Context, _ []byte, _, _ string) (*models.AudioComparison, error) {
	if f.calls >= len(f.results) {
		return &models.AudioComparison{Match: true, Confidence: 95}, nil
	}
	r := f.results[f.calls]
	f.calls++
	return r.cmp, r.err
}

type fakeGateway struct {
	plays      []string
	stops      int
	captureErr error
	playbacks  int
}

func (g *fakeGateway) Play(clip string) { g.plays = append(g.plays, clip) }
func (g *fakeGateway) Stop()            { g.stops++ }

func (g *fakeGateway) Capture(_ context.Context, _ time.Duration) (media.Recording, error) {
	if g.captureErr != nil {
		return media.Recording{}, g.captureErr
	}
	return media.Recording{CaptureID: fmt.Sprintf("cap-%d", g.playbacks), Audio: []byte("webm")}, nil
}

func (g *fakeGateway) PlayRecording(_ context.Context, _ media.Recording) error {
	g.playbacks++
	return nil
}

type recordingPresenter struct {
	instructions []models.Instruction
}

func (p *recordingPresenter) Present(instr models.Instruction) {
	p.instructions = append(p.instructions, instr)
}

func (p *recordingPresenter) count(kind models.InstructionKind) int {
	n := 0
	for _, in := range p.instructions {
		if in.Kind == kind {
			n++
		}
	}
	return n
}

func (p *recordingPresenter) last(kind models.InstructionKind) (models.Instruction, bool) {
	for i := len(p.instructions) - 1; i >= 0; i-- {
		if p.instructions[i].Kind == kind {
			return p.instructions[i], true
		}
	}
	return models.Instruction{}, false
}

type progressCall struct {
	index, done, total int
}

type fakeHooks struct {
	progress []progressCall
	records  map[int]models.ActivityRecord
}

func (h *fakeHooks) Progress(index, done, total int) {
	h.progress = append(h.progress, progressCall{index, done, total})
}

func (h *fakeHooks) Complete(index int, record models.ActivityRecord) {
	if h.records == nil {
		h.records = make(map[int]models.ActivityRecord)
	}
	h.records[index] = record
}

type harness struct {
	loop      *queueLoop
	content   *fakeContent
	scorer    *fakeScorer
	gateway   *fakeGateway
	presenter *recordingPresenter
	hooks     *fakeHooks
	env       *Env
}

func newHarness() *harness {
	h := &harness{
		loop: &queueLoop{},
		content: &fakeContent{pool: models.ContentPool{
			Subcategory: "apple",
			Targets:     []string{"apple_1", "apple_2"},
			Distractors: []models.Asset{
				{Name: "banana_1", Subcategory: "banana"},
				{Name: "pear_1", Subcategory: "pear"},
				{Name: "grape_1", Subcategory: "grape"},
				{Name: "plum_1", Subcategory: "plum"},
				{Name: "kiwi_1", Subcategory: "kiwi"},
				{Name: "fig_1", Subcategory: "fig"},
			},
		}},
		scorer:    &fakeScorer{},
		gateway:   &fakeGateway{},
		presenter: &recordingPresenter{},
		hooks:     &fakeHooks{},
	}
	h.env = &Env{
		SessionID: "s-1",
		Topic:     models.SessionTopic{Dimension: "vocabulary", Category: "fruits", Subcategory: "apple"},
		Loop:      h.loop,
		Content:   h.content,
		Scorer:    h.scorer,
		Media:     h.gateway,
		Presenter: h.presenter,
		Rounds:    rounds.NewGenerator(7),
		Timings:   config.Instant(),
	}
	return h
}

func (h *harness) start(t *testing.T, spec models.ActivitySpec) *Controller {
	t.Helper()
	c := New(h.env, 0, spec, h.hooks)
	c.Start()
	h.loop.drain(t)
	return c
}

func wrongSlot(round models.RoundState) int {
	for i := range round.Candidates {
		if i != round.CorrectSlot {
			return i
		}
	}
	return -1
}

// ── Choice activities ─────────────────────────────────────

func TestWheelCountsEveryAttemptUntilCorrect(t *testing.T) {
	h := newHarness()
	c := h.start(t, models.ActivitySpec{Kind: models.KindWheelSelect, RoundsRequired: 1, ChoiceCount: 6})

	if c.State() != StateRoundInProgress {
		t.Fatalf("state = %s, want %s", c.State(), StateRoundInProgress)
	}
	round := c.Round()
	if len(round.Candidates) != 6 {
		t.Fatalf("candidates = %d, want 6", len(round.Candidates))
	}

	for i := 0; i < 6; i++ {
		c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: round.ID, Slot: wrongSlot(round)})
		h.loop.drain(t)
	}
	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: round.ID, Slot: round.CorrectSlot})
	h.loop.drain(t)

	rec, ok := h.hooks.records[0]
	if !ok {
		t.Fatal("activity did not complete")
	}
	if len(rec.AttemptsPerRound) != 1 || rec.AttemptsPerRound[0] != 7 {
		t.Errorf("attempts = %v, want [7]", rec.AttemptsPerRound)
	}
	if rec.CorrectCount != 1 {
		t.Errorf("correct = %d, want 1", rec.CorrectCount)
	}
	if got := h.presenter.count(models.InstrMarkChoice); got != 7 {
		t.Errorf("mark_choice count = %d, want 7", got)
	}
}

func TestSelectionsOutsideOpenRoundAreIgnored(t *testing.T) {
	h := newHarness()
	c := h.start(t, models.ActivitySpec{Kind: models.KindVisualMatch, DifficultyMode: models.ModePlain, RoundsRequired: 1, ChoiceCount: 3})
	round := c.Round()

	tests := []struct {
		name string
		ev   models.InputEvent
	}{
		{"stale round", models.InputEvent{Kind: models.InputSelect, RoundID: "old", Slot: round.CorrectSlot}},
		{"slot out of range", models.InputEvent{Kind: models.InputSelect, RoundID: round.ID, Slot: 3}},
		{"negative slot", models.InputEvent{Kind: models.InputSelect, RoundID: round.ID, Slot: -1}},
		{"not a selection", models.InputEvent{Kind: models.InputRecording, RoundID: round.ID}},
	}
	for _, tt := range tests {
		c.HandleInput(tt.ev)
		if got := c.Round().AttemptsThisRound; got != 0 {
			t.Errorf("%s: attempts = %d, want 0", tt.name, got)
		}
	}

	// A wrong pick closes input until the cooldown has run.
	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: round.ID, Slot: wrongSlot(round)})
	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: round.ID, Slot: round.CorrectSlot})
	if got := c.Round().AttemptsThisRound; got != 1 {
		t.Errorf("attempts during cooldown = %d, want 1", got)
	}

	h.loop.drain(t)
	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: round.ID, Slot: round.CorrectSlot})
	h.loop.drain(t)
	if rec := h.hooks.records[0]; len(rec.AttemptsPerRound) != 1 || rec.AttemptsPerRound[0] != 2 {
		t.Errorf("attempts = %v, want [2]", rec.AttemptsPerRound)
	}
}

func TestCooldownFromEarlierRoundIsDropped(t *testing.T) {
	h := newHarness()
	c := h.start(t, models.ActivitySpec{Kind: models.KindVisualMatch, DifficultyMode: models.ModePlain, RoundsRequired: 2, ChoiceCount: 3})

	first := c.Round()
	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: first.ID, Slot: wrongSlot(first)})
	if len(h.loop.queue) != 1 {
		t.Fatalf("pending callbacks = %d, want the cooldown", len(h.loop.queue))
	}
	firstCooldown := h.loop.queue[0]
	h.loop.drain(t)
	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: first.ID, Slot: first.CorrectSlot})
	h.loop.drain(t)

	second := c.Round()
	if second.Number != 2 {
		t.Fatalf("round = %d, want 2", second.Number)
	}
	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: second.ID, Slot: wrongSlot(second)})
	enables := h.presenter.count(models.InstrEnableInput)

	// Round 1's cooldown fires while round 2 is cooling down.
	firstCooldown()

	if got := h.presenter.count(models.InstrEnableInput); got != enables {
		t.Errorf("enable_input count = %d, want %d", got, enables)
	}
	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: second.ID, Slot: second.CorrectSlot})
	if got := c.Round().AttemptsThisRound; got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
	if got := c.record.RoundsCompleted(); got != 1 {
		t.Errorf("rounds completed = %d, want 1", got)
	}

	h.loop.drain(t)
	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: second.ID, Slot: second.CorrectSlot})
	h.loop.drain(t)
	if rec := h.hooks.records[0]; fmt.Sprint(rec.AttemptsPerRound) != "[2 2]" {
		t.Errorf("attempts = %v, want [2 2]", rec.AttemptsPerRound)
	}
}

func TestVisualMatchRoundsAndProgress(t *testing.T) {
	h := newHarness()
	spec := models.ActivitySpec{Kind: models.KindVisualMatch, DifficultyMode: models.ModeEnlargedTarget, RoundsRequired: 5, ChoiceCount: 3}
	c := h.start(t, spec)

	if len(h.content.opts) != 1 || !h.content.opts[0].Distractors || !h.content.opts[0].Fallback {
		t.Errorf("pool options = %+v, want distractors with fallback", h.content.opts)
	}

	previous := models.NoSlot
	for i := 0; i < 5; i++ {
		round := c.Round()
		if round.Number != i+1 {
			t.Errorf("round number = %d, want %d", round.Number, i+1)
		}
		if round.CorrectSlot == previous {
			t.Errorf("round %d: target repeated slot %d", i+1, previous)
		}
		if round.TargetCount() != 1 {
			t.Errorf("round %d: %d targets", i+1, round.TargetCount())
		}
		show, _ := h.presenter.last(models.InstrShowRound)
		if show.Slots[round.CorrectSlot].Emphasis != models.EmphasisEnlarged {
			t.Errorf("round %d: target emphasis = %s", i+1, show.Slots[round.CorrectSlot].Emphasis)
		}
		previous = round.CorrectSlot

		c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: round.ID, Slot: round.CorrectSlot})
		h.loop.drain(t)
	}

	if c.State() != StateComplete {
		t.Fatalf("state = %s, want complete", c.State())
	}
	want := []progressCall{{0, 1, 5}, {0, 2, 5}, {0, 3, 5}, {0, 4, 5}}
	if fmt.Sprint(h.hooks.progress) != fmt.Sprint(want) {
		t.Errorf("progress = %v, want %v", h.hooks.progress, want)
	}
	if rec := h.hooks.records[0]; rec.CorrectCount != 5 || len(rec.AttemptsPerRound) != 5 {
		t.Errorf("record = %+v", rec)
	}
}

func TestContentFailureStillProducesRound(t *testing.T) {
	h := newHarness()
	h.content.pool = models.ContentPool{}
	h.content.err = models.ErrContentUnavailable

	c := h.start(t, models.ActivitySpec{Kind: models.KindVisualMatch, DifficultyMode: models.ModeColorMatch, RoundsRequired: 1, ChoiceCount: 3})
	round := c.Round()

	if c.State() != StateRoundInProgress {
		t.Fatalf("state = %s", c.State())
	}
	if len(round.Candidates) != 3 || round.TargetCount() != 1 {
		t.Fatalf("candidates = %+v", round.Candidates)
	}
	show, ok := h.presenter.last(models.InstrShowRound)
	if !ok || len(show.Slots) != 3 {
		t.Fatalf("show_round = %+v", show)
	}
	if got := show.Slots[0].ImagePath; !strings.HasPrefix(got, "/fruits/apple/") {
		t.Errorf("placeholder path = %q", got)
	}

	c.HandleInput(models.InputEvent{Kind: models.InputSelect, RoundID: round.ID, Slot: round.CorrectSlot})
	h.loop.drain(t)
	if _, ok := h.hooks.records[0]; !ok {
		t.Error("activity did not complete")
	}
}

// ── Listening ─────────────────────────────────────────────

func TestListeningScript(t *testing.T) {
	h := newHarness()
	c := h.start(t, models.ActivitySpec{Kind: models.KindListening, RoundsRequired: 1})

	if len(h.content.opts) != 0 {
		t.Errorf("listening fetched content %d times", len(h.content.opts))
	}
	if got := len(h.gateway.plays); got != 14 {
		t.Errorf("plays = %d, want 14", got)
	}
	for _, clip := range h.gateway.plays {
		if clip != "/fruits/apple/apple.m4a" {
			t.Errorf("clip = %q", clip)
		}
	}

	img, ok := h.presenter.last(models.InstrShowImage)
	if !ok {
		t.Fatal("no image revealed")
	}
	if !strings.HasPrefix(img.Path, "/fruits/apple/apple_") || !strings.HasSuffix(img.Path, "_1.png") {
		t.Errorf("reveal path = %q", img.Path)
	}

	if c.State() != StateComplete {
		t.Fatalf("state = %s", c.State())
	}
	if want := []progressCall{{0, 1, 2}}; fmt.Sprint(h.hooks.progress) != fmt.Sprint(want) {
		t.Errorf("progress = %v, want %v", h.hooks.progress, want)
	}
	if rec := h.hooks.records[0]; rec.CorrectCount != 1 || fmt.Sprint(rec.AttemptsPerRound) != "[1]" {
		t.Errorf("record = %+v", rec)
	}
}

// ── Speech ────────────────────────────────────────────────

func TestSpeechRetriesUntilConfidenceAboveThreshold(t *testing.T) {
	h := newHarness()
	h.scorer.results = []scoreResult{
		{cmp: &models.AudioComparison{Match: true, Confidence: 70}},
		{err: models.ErrScoringService},
		{cmp: &models.AudioComparison{Match: true, Confidence: 70.5}},
	}
	c := h.start(t, models.ActivitySpec{Kind: models.KindSpeechRecognition, RoundsRequired: 1, ChoiceCount: 1})

	if c.State() != StateComplete {
		t.Fatalf("state = %s", c.State())
	}
	rec := h.hooks.records[0]
	if fmt.Sprint(rec.AttemptsPerRound) != "[3]" {
		t.Errorf("attempts = %v, want [3]", rec.AttemptsPerRound)
	}
	if h.gateway.playbacks != 3 {
		t.Errorf("playbacks = %d, want 3", h.gateway.playbacks)
	}
	prompts := 0
	for _, clip := range h.gateway.plays {
		if clip == "/what_is_this.m4a" {
			prompts++
		}
	}
	if prompts != 3 {
		t.Errorf("prompts = %d, want 3", prompts)
	}
	if got := h.presenter.count(models.InstrSpeechResult); got != 3 {
		t.Errorf("speech results = %d, want 3", got)
	}
}

func TestSpeechWithoutMicrophoneSucceeds(t *testing.T) {
	h := newHarness()
	h.gateway.captureErr = fmt.Errorf("%w: permission denied", models.ErrCaptureUnavailable)

	c := h.start(t, models.ActivitySpec{Kind: models.KindSpeechRecognition, RoundsRequired: 2, ChoiceCount: 1})

	if c.State() != StateComplete {
		t.Fatalf("state = %s", c.State())
	}
	if rec := h.hooks.records[0]; fmt.Sprint(rec.AttemptsPerRound) != "[1 1]" {
		t.Errorf("attempts = %v, want [1 1]", rec.AttemptsPerRound)
	}
	if h.scorer.calls != 0 {
		t.Errorf("scorer called %d times", h.scorer.calls)
	}
	res, _ := h.presenter.last(models.InstrSpeechResult)
	if res.Correct == nil || !*res.Correct {
		t.Errorf("skip result = %+v", res)
	}
}

func TestSpeechAbortedCaptureIsDropped(t *testing.T) {
	h := newHarness()
	h.gateway.captureErr = context.Canceled

	c := h.start(t, models.ActivitySpec{Kind: models.KindSpeechRecognition, RoundsRequired: 1, ChoiceCount: 1})
	if c.State() != StateRoundInProgress {
		t.Errorf("state = %s, want round in progress", c.State())
	}
	if len(h.hooks.records) != 0 {
		t.Error("aborted capture completed the activity")
	}
}

func TestLateSpeechResultsFromEarlierRoundAreDropped(t *testing.T) {
	h := newHarness()
	c := New(h.env, 0, models.ActivitySpec{Kind: models.KindSpeechRecognition, RoundsRequired: 2, ChoiceCount: 1}, h.hooks)
	c.Start()

	h.loop.runUntil(t, func() bool { return c.Round().Number == 1 && c.Round().AttemptsThisRound == 1 })
	firstID := c.Round().ID
	h.loop.runUntil(t, func() bool { return c.Round().Number == 2 && c.Round().AttemptsThisRound == 1 })

	results := h.presenter.count(models.InstrSpeechResult)
	c.onScored(firstID, media.Recording{CaptureID: "late"}, &models.AudioComparison{Match: true, Confidence: 99}, nil)
	c.onCaptureFailed(firstID, models.ErrCaptureUnavailable)

	if got := h.presenter.count(models.InstrSpeechResult); got != results {
		t.Errorf("speech results = %d, want %d", got, results)
	}
	if c.State() != StateRoundInProgress {
		t.Errorf("state = %s, want %s", c.State(), StateRoundInProgress)
	}
	if got := c.Round().AttemptsThisRound; got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
	if got := c.record.RoundsCompleted(); got != 1 {
		t.Errorf("rounds completed = %d, want 1", got)
	}

	h.loop.drain(t)
	if rec := h.hooks.records[0]; fmt.Sprint(rec.AttemptsPerRound) != "[1 1]" {
		t.Errorf("attempts = %v, want [1 1]", rec.AttemptsPerRound)
	}
}
