// Package rounds builds the content of a single round: one target placed in
// a random slot among distractors, with the rules that keep a learner from
// passing by position memory.
package rounds

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/speech-steps/backend/internal/models"
)

// Palette is the fixed set of color variants every asset is drawn in.
var Palette = []string{"blue", "black", "red", "green", "yellow"}

// Generator draws rounds from a seeded source. It is not safe for
// concurrent use; each session owns its own.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewSeed returns a high-entropy seed, falling back to the clock if the
// system source fails.
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// Build produces one round. It never fails: undersized pools are resampled
// with replacement and empty pools degrade to placeholder assets.
func (g *Generator) Build(mode models.DifficultyMode, pool models.ContentPool, choiceCount, previousSlot int) models.RoundState {
	if choiceCount < 1 {
		choiceCount = 1
	}

	round := models.RoundState{
		ID:                  uuid.NewString(),
		Mode:                mode,
		PreviousCorrectSlot: previousSlot,
	}

	target := g.Pick(pool.Targets)
	distractors := g.drawDistractors(pool.Distractors, choiceCount-1)
	// With no distractors at all the target image fills the other slots.
	for len(distractors) < choiceCount-1 {
		distractors = append(distractors, models.Asset{Name: target, Subcategory: pool.Subcategory})
	}

	if mode == models.ModeColorMatch {
		round.TargetColor, round.DistractorColor = g.colorPair()
		if target != models.PlaceholderAsset {
			target = models.Recolor(target, round.TargetColor)
		}
		for i := range distractors {
			if distractors[i].Name != models.PlaceholderAsset {
				distractors[i].Name = models.Recolor(distractors[i].Name, round.DistractorColor)
			}
		}
	}

	round.CorrectSlot = g.drawSlot(choiceCount, previousSlot)
	round.Candidates = make([]models.Candidate, choiceCount)
	next := 0
	for i := range round.Candidates {
		if i == round.CorrectSlot {
			round.Candidates[i] = models.Candidate{
				Asset:    models.Asset{Name: target, Subcategory: pool.Subcategory},
				IsTarget: true,
			}
			continue
		}
		round.Candidates[i] = models.Candidate{Asset: distractors[next]}
		next++
	}

	return round
}

// Pick draws one asset uniformly, or the placeholder from an empty list.
func (g *Generator) Pick(assets []string) string {
	if len(assets) == 0 {
		return models.PlaceholderAsset
	}
	return assets[g.rng.Intn(len(assets))]
}

// Color draws a palette color.
func (g *Generator) Color() string {
	return Palette[g.rng.Intn(len(Palette))]
}

func (g *Generator) colorPair() (string, string) {
	target := g.rng.Intn(len(Palette))
	other := g.rng.Intn(len(Palette) - 1)
	if other >= target {
		other++
	}
	return Palette[target], Palette[other]
}

// drawDistractors samples without replacement while the pool lasts, then
// with replacement. An empty pool yields nothing.
func (g *Generator) drawDistractors(pool []models.Asset, n int) []models.Asset {
	if n <= 0 || len(pool) == 0 {
		return nil
	}

	out := make([]models.Asset, 0, n)
	for _, idx := range g.rng.Perm(len(pool)) {
		if len(out) == n {
			break
		}
		out = append(out, pool[idx])
	}
	for len(out) < n {
		out = append(out, pool[g.rng.Intn(len(pool))])
	}
	return out
}

// drawSlot places the target uniformly, redrawing while it lands on the
// previous round's slot.
func (g *Generator) drawSlot(choiceCount, previousSlot int) int {
	if choiceCount <= 1 {
		return 0
	}
	for {
		slot := g.rng.Intn(choiceCount)
		if slot != previousSlot {
			return slot
		}
	}
}

// SlotEmphasis returns how a candidate is drawn in a given mode: the easier
// visual levels make the target stand out.
func SlotEmphasis(mode models.DifficultyMode, isTarget bool) models.Emphasis {
	if !isTarget {
		return models.EmphasisNone
	}
	switch mode {
	case models.ModeEnlargedTarget:
		return models.EmphasisEnlarged
	case models.ModeShiftedTarget:
		return models.EmphasisShifted
	default:
		return models.EmphasisNone
	}
}
