package activity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/speech-steps/backend/internal/models"
)

// The listening activity has no choices and no pass/fail: every round plays
// the target word, reveals its picture, plays the word again and succeeds
// on the first attempt.

func (c *Controller) startListeningRound() {
	c.round = models.RoundState{
		ID:                  uuid.NewString(),
		Number:              c.roundNumber(),
		Mode:                c.spec.DifficultyMode,
		PreviousCorrectSlot: models.NoSlot,
	}

	topic := c.env.Topic
	clip := c.env.Paths.WordClip(topic.Category, topic.Subcategory)
	t := c.env.Timings

	c.repeatClip(clip, t.FirstRepetitions, func() {
		image := topic.Subcategory + "_" + c.env.Rounds.Color() + "_1"
		c.present(models.Instruction{
			Kind: models.InstrShowImage,
			Path: c.env.Paths.Image(topic.Category, topic.Subcategory, image),
		})
		c.hooks.Progress(c.index, 2*c.record.RoundsCompleted()+1, 2*c.spec.RoundsRequired)

		c.afterRound(t.RevealDelay, func() {
			c.repeatClip(clip, t.SecondRepetitions, func() {
				c.round.AttemptsThisRound = 1
				c.resolveRound(t.ListeningOutro)
			})
		})
	})
}

// repeatClip plays clip total times, one repetition delay apart, then runs
// then after a final delay.
func (c *Controller) repeatClip(clip string, total int, then func()) {
	var play func(n int)
	play = func(n int) {
		if n > total {
			then()
			return
		}
		c.present(models.Instruction{
			Kind: models.InstrStatus,
			Text: fmt.Sprintf("%d من %d", n, total),
		})
		c.env.Media.Play(clip)
		c.afterRound(c.env.Timings.RepetitionDelay, func() { play(n + 1) })
	}
	play(1)
}
