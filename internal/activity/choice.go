package activity

import (
	"time"

	"github.com/speech-steps/backend/internal/models"
	"github.com/speech-steps/backend/internal/rounds"
)

// Visual-match and wheel-select rounds: show the candidates, accept
// selections until the target is hit. There is no attempt ceiling.

func (c *Controller) startChoiceRound() {
	round := c.env.Rounds.Build(c.spec.DifficultyMode, c.pool, c.spec.ChoiceCount, c.previousSlot)
	round.Number = c.roundNumber()
	c.round = round
	c.previousSlot = round.CorrectSlot

	c.present(models.Instruction{
		Kind:  models.InstrShowRound,
		Slots: c.displaySlots(),
	})
	c.openInput()
}

func (c *Controller) displaySlots() []models.DisplaySlot {
	category := c.env.Topic.Category
	slots := make([]models.DisplaySlot, len(c.round.Candidates))
	for i, cand := range c.round.Candidates {
		slots[i] = models.DisplaySlot{
			Index:     i,
			ImagePath: c.env.Paths.Image(category, cand.Subcategory, cand.Name),
			Emphasis:  rounds.SlotEmphasis(c.round.Mode, cand.IsTarget),
		}
	}
	return slots
}

func (c *Controller) openInput() {
	c.inputOpen = true
	c.present(models.Instruction{Kind: models.InstrEnableInput})
}

func (c *Controller) closeInput() {
	c.inputOpen = false
	c.present(models.Instruction{Kind: models.InstrDisableInput})
}

func (c *Controller) handleSelection(slot int) {
	c.round.AttemptsThisRound++
	correct := slot == c.round.CorrectSlot

	c.closeInput()
	c.present(models.Instruction{
		Kind:    models.InstrMarkChoice,
		Slot:    models.IntPtr(slot),
		Correct: models.BoolPtr(correct),
	})

	if correct {
		c.resolveRound(c.env.Timings.SuccessFeedback)
		return
	}
	c.afterRound(c.cooldown(), c.openInput)
}

func (c *Controller) cooldown() time.Duration {
	if c.spec.Kind == models.KindWheelSelect {
		return c.env.Timings.WheelCooldown
	}
	return c.env.Timings.VisualCooldown
}
