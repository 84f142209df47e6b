// Package session sequences one training session through the activity
// pipeline and exposes live sessions over a websocket.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/speech-steps/backend/internal/activity"
	"github.com/speech-steps/backend/internal/config"
	"github.com/speech-steps/backend/internal/media"
	"github.com/speech-steps/backend/internal/models"
	"github.com/speech-steps/backend/internal/narrative"
	"github.com/speech-steps/backend/internal/rounds"
)

const eventBuffer = 256

// Persister receives the single record written when a session finishes.
type Persister interface {
	CreateTraining(ctx context.Context, req models.CreateTrainingRequest) (*models.CreateTrainingResponse, error)
}

// NoteWriter drafts the optional specialist note.
type NoteWriter interface {
	Write(ctx context.Context, topic models.SessionTopic, activities []models.ActivitySpec, report models.SessionScoreReport) (string, error)
}

type Deps struct {
	Content  activity.ContentSource
	Scorer   activity.Scorer
	Records  Persister
	Notes    NoteWriter
	Pipeline *config.Pipeline
	Paths    models.AssetPaths
	// Seed fixes the round generator; zero draws a fresh seed per session.
	Seed int64
}

// Outcome is what a finished session left behind. Read it after Done.
type Outcome struct {
	Report     models.SessionScoreReport
	Request    models.CreateTrainingRequest
	TrainingID int64
	Err        error
}

type Orchestrator struct {
	id     string
	topic  *models.SessionTopic
	deps   Deps
	out    media.Presenter
	remote *media.Remote
	loop   *Loop
	env    *activity.Env

	started atomic.Bool

	// Owned by the loop.
	current  *activity.Controller
	records  map[int]models.ActivityRecord
	progress *Progress
	finished bool
	outcome  Outcome
}

func New(id string, topic *models.SessionTopic, out media.Presenter, deps Deps) *Orchestrator {
	timings := deps.Pipeline.Timings
	seed := deps.Seed
	if seed == 0 {
		seed = rounds.NewSeed()
	}

	o := &Orchestrator{
		id:       id,
		topic:    topic,
		deps:     deps,
		out:      out,
		remote:   media.NewRemote(out, timings.CaptureGrace, timings.PlaybackSafety),
		loop:     NewLoop(eventBuffer),
		records:  make(map[int]models.ActivityRecord),
		progress: NewProgress(deps.Pipeline.InitialPercent),
	}

	var t models.SessionTopic
	if topic != nil {
		t = *topic
	}
	o.env = &activity.Env{
		SessionID: id,
		Topic:     t,
		Loop:      o.loop,
		Content:   deps.Content,
		Scorer:    deps.Scorer,
		Media:     o.remote,
		Presenter: out,
		Rounds:    rounds.NewGenerator(seed),
		Paths:     deps.Paths,
		Timings:   timings,
	}
	return o
}

func (o *Orchestrator) ID() string {
	return o.id
}

// Start begins the first activity. A session without a resolved topic never
// starts.
func (o *Orchestrator) Start() error {
	if !o.topic.Resolved() {
		log.Printf("[session] %s: refusing to start without a topic", o.id)
		return models.ErrMissingTopic
	}
	if o.started.Swap(true) {
		return errors.New("session already started")
	}

	go o.loop.Run()
	o.loop.Post(o.begin)
	return nil
}

// Submit hands an input event to the session. Capture and playback answers
// go to the audio gateway; selections go to the running activity.
func (o *Orchestrator) Submit(ev models.InputEvent) {
	if ev.ForGateway() {
		if !o.remote.Deliver(ev) {
			log.Printf("[session] %s: dropped %s for capture %s", o.id, ev.Kind, ev.CaptureID)
		}
		return
	}
	o.loop.Post(func() {
		if o.current != nil {
			o.current.HandleInput(ev)
		}
	})
}

// Close abandons the session. Pending timers and in-flight work are
// dropped; a persistence call already issued still completes.
func (o *Orchestrator) Close() {
	o.loop.Close()
}

func (o *Orchestrator) Done() <-chan struct{} {
	return o.loop.Done()
}

// Outcome returns the session's result. It is only meaningful after Done.
func (o *Orchestrator) Outcome() Outcome {
	return o.outcome
}

// ── Sequencing ──────────────────────────────────────────

func (o *Orchestrator) begin() {
	word := o.topic.Word()
	o.present(models.Instruction{
		Kind:    models.InstrSessionStarted,
		Text:    models.DisplayName(word),
		Percent: o.progress.Percent(),
	})
	o.emitProgress()
	o.startActivity(0)
}

func (o *Orchestrator) startActivity(index int) {
	spec := o.deps.Pipeline.Activities[index]
	log.Printf("[session] %s: activity %d/%d %s (%s)", o.id, index+1, len(o.deps.Pipeline.Activities), spec.Kind, spec.DifficultyMode)

	o.present(models.Instruction{
		Kind:         models.InstrStatus,
		Activity:     index,
		ActivityKind: spec.Kind,
		Text:         spec.Title,
	})

	o.current = activity.New(o.env, index, spec, stageHooks{o})
	o.current.Start()
}

func (o *Orchestrator) onProgress(index, done, total int) {
	band := o.deps.Pipeline.Activities[index].Band
	if o.progress.Advance(BandPercent(band, done, total)) {
		o.emitProgress()
	}
}

func (o *Orchestrator) onActivityComplete(index int, record models.ActivityRecord) {
	o.records[index] = record
	o.current = nil

	spec := o.deps.Pipeline.Activities[index]
	log.Printf("[session] %s: activity %d complete, attempts %v", o.id, index+1, record.AttemptsPerRound)
	if o.progress.Advance(spec.Band.End) {
		o.emitProgress()
	}

	if next := index + 1; next < len(o.deps.Pipeline.Activities) {
		o.startActivity(next)
		return
	}
	o.finish()
}

// ── Finishing ───────────────────────────────────────────

func (o *Orchestrator) finish() {
	if o.finished {
		return
	}
	o.finished = true

	activities := o.deps.Pipeline.Activities
	report := BuildReport(activities, o.records)
	report.NarrativeText = narrative.Render(activities, report)
	log.Printf("[session] %s: finished with %d of %d", o.id, report.TotalCorrect, report.TotalRounds)

	if o.deps.Notes == nil {
		o.persist(report, "")
		return
	}

	notes := o.deps.Notes
	topic := *o.topic
	timeout := o.deps.Pipeline.Timings.NoteTimeout
	id := o.id
	o.loop.Go(func(ctx context.Context) func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		note, err := notes.Write(ctx, topic, activities, report)
		if err != nil {
			log.Printf("[session] %s: specialist note skipped: %v", id, err)
			note = ""
		}
		return func() { o.persist(report, note) }
	})
}

func (o *Orchestrator) persist(report models.SessionScoreReport, note string) {
	req := narrative.TrainingRequest(*o.topic, report.NarrativeText, note)
	o.outcome.Report = report
	o.outcome.Request = req

	o.present(models.Instruction{
		Kind:   models.InstrSessionFinished,
		Report: &report,
	})

	records := o.deps.Records
	id := o.id
	o.loop.Go(func(ctx context.Context) func() {
		// The record is written even if the child leaves meanwhile.
		resp, err := records.CreateTraining(context.WithoutCancel(ctx), req)
		if err != nil {
			log.Printf("[session] %s: %v", id, err)
		}
		return func() { o.onPersisted(resp, err) }
	})

	if o.progress.Complete() {
		o.emitProgress()
	}
}

func (o *Orchestrator) onPersisted(resp *models.CreateTrainingResponse, err error) {
	if err != nil {
		if !errors.Is(err, models.ErrPersistence) {
			err = fmt.Errorf("%w: %v", models.ErrPersistence, err)
		}
		o.outcome.Err = err
	} else if resp != nil {
		o.outcome.TrainingID = resp.ID
		log.Printf("[session] %s: stored as training %d", o.id, resp.ID)
	}

	o.loop.After(o.deps.Pipeline.Timings.NavigateDelay, func() {
		o.present(models.Instruction{Kind: models.InstrClearTopic})
		o.present(models.Instruction{Kind: models.InstrNavigateBack})
		o.loop.Close()
	})
}

func (o *Orchestrator) emitProgress() {
	o.present(models.Instruction{
		Kind:    models.InstrProgress,
		Percent: o.progress.Percent(),
	})
}

func (o *Orchestrator) present(instr models.Instruction) {
	instr.SessionID = o.id
	o.out.Present(instr)
}

// stageHooks keeps the controller callbacks off the exported surface.
type stageHooks struct {
	o *Orchestrator
}

func (h stageHooks) Progress(index, done, total int) {
	h.o.onProgress(index, done, total)
}

func (h stageHooks) Complete(index int, record models.ActivityRecord) {
	h.o.onActivityComplete(index, record)
}

var _ activity.Hooks = stageHooks{}
