package activity

import (
	"context"
	"errors"
	"log"

	"github.com/speech-steps/backend/internal/media"
	"github.com/speech-steps/backend/internal/models"
)

// Speech rounds show the target alone and loop prompt, capture, playback and
// comparison until the scoring service accepts the recording. Attempts keep
// counting across retries of the same round.

const (
	textCorrect      = "صحيح! ✓"
	textTryAgain     = "حاول مرة أخرى"
	textSkipped      = "✓ تم تخطي التسجيل"
	textCompareError = "حدث خطأ في المقارنة"
	textRecording    = "جاري التسجيل..."
)

func (c *Controller) startSpeechRound() {
	round := c.env.Rounds.Build(c.spec.DifficultyMode, c.pool, 1, models.NoSlot)
	round.Number = c.roundNumber()
	c.round = round

	c.present(models.Instruction{
		Kind:  models.InstrShowRound,
		Slots: c.displaySlots(),
	})
	c.afterRound(c.env.Timings.SpeechStartDelay, c.promptAttempt)
}

func (c *Controller) promptAttempt() {
	c.round.AttemptsThisRound++
	c.env.Media.Play(c.env.Paths.Prompt())
	t := c.env.Timings
	c.afterRound(t.PromptDuration+t.PromptGap, c.captureAttempt)
}

func (c *Controller) captureAttempt() {
	c.env.Media.Stop()
	c.present(models.Instruction{Kind: models.InstrStatus, Text: textRecording})

	roundID := c.round.ID
	topic := c.env.Topic
	window := c.env.Timings.CaptureWindow
	gateway := c.env.Media
	scorer := c.env.Scorer

	c.env.Loop.Go(func(ctx context.Context) func() {
		rec, err := gateway.Capture(ctx, window)
		if err != nil {
			return func() { c.onCaptureFailed(roundID, err) }
		}
		if err := gateway.PlayRecording(ctx, rec); err != nil {
			return func() { c.onCaptureFailed(roundID, err) }
		}
		result, err := scorer.Compare(ctx, rec.Audio, topic.Category, topic.Subcategory)
		return func() { c.onScored(roundID, rec, result, err) }
	})
}

func (c *Controller) onCaptureFailed(roundID string, err error) {
	if !c.current(roundID) {
		return
	}
	if !errors.Is(err, models.ErrCaptureUnavailable) {
		log.Printf("[activity] session %s: capture aborted: %v", c.env.SessionID, err)
		return
	}

	// Without a microphone the round is counted as passed so the child is
	// never stuck.
	log.Printf("[activity] session %s round %d: %v, skipping", c.env.SessionID, c.round.Number, err)
	c.present(models.Instruction{
		Kind:    models.InstrSpeechResult,
		Correct: models.BoolPtr(true),
		Text:    textSkipped,
	})
	c.resolveRound(c.env.Timings.SkipFeedback)
}

func (c *Controller) onScored(roundID string, rec media.Recording, result *models.AudioComparison, err error) {
	if !c.current(roundID) {
		return
	}

	if err != nil {
		log.Printf("[activity] session %s round %d attempt %d: %v",
			c.env.SessionID, c.round.Number, c.round.AttemptsThisRound, err)
		c.present(models.Instruction{
			Kind:      models.InstrSpeechResult,
			Correct:   models.BoolPtr(false),
			CaptureID: rec.CaptureID,
			Text:      textCompareError,
		})
		c.afterRound(c.env.Timings.RetryDelay, c.promptAttempt)
		return
	}

	correct := result.Correct()
	instr := models.Instruction{
		Kind:       models.InstrSpeechResult,
		Correct:    models.BoolPtr(correct),
		CaptureID:  rec.CaptureID,
		Comparison: result,
		Text:       textTryAgain,
	}
	if correct {
		instr.Text = textCorrect
	}
	c.present(instr)

	if correct {
		c.resolveRound(c.env.Timings.SuccessFeedback)
		return
	}
	c.afterRound(c.env.Timings.RetryDelay, c.promptAttempt)
}
