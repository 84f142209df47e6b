package config

import (
	"fmt"
	"os"

	"github.com/speech-steps/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// Pipeline is the fixed, ordered activity sequence of a session together
// with the timings used to pace it.
type Pipeline struct {
	InitialPercent int                   `json:"initial_percent" yaml:"initial_percent"`
	Activities     []models.ActivitySpec `json:"activities" yaml:"activities"`
	Timings        Timings               `json:"timings" yaml:"timings"`
}

// DefaultPipeline mirrors the production training flow: listening, three
// visual-match levels, the wheel game and speech practice.
func DefaultPipeline() *Pipeline {
	return &Pipeline{
		InitialPercent: 5,
		Activities: []models.ActivitySpec{
			{
				Kind:           models.KindListening,
				DifficultyMode: models.ModePlain,
				RoundsRequired: 1,
				Title:          "الاستماع",
				Band:           models.ProgressBand{Start: 0, End: 35},
			},
			{
				Kind:           models.KindVisualMatch,
				DifficultyMode: models.ModeEnlargedTarget,
				RoundsRequired: 5,
				ChoiceCount:    3,
				Title:          "التعرف البصري - المستوى الأول",
				Band:           models.ProgressBand{Start: 35, End: 42},
			},
			{
				Kind:           models.KindVisualMatch,
				DifficultyMode: models.ModeShiftedTarget,
				RoundsRequired: 5,
				ChoiceCount:    3,
				Title:          "التعرف البصري - المستوى الثاني",
				Band:           models.ProgressBand{Start: 42, End: 49},
			},
			{
				Kind:           models.KindVisualMatch,
				DifficultyMode: models.ModeColorMatch,
				RoundsRequired: 5,
				ChoiceCount:    3,
				Title:          "التعرف البصري - تطابق الألوان",
				Band:           models.ProgressBand{Start: 49, End: 56},
			},
			{
				Kind:           models.KindWheelSelect,
				DifficultyMode: models.ModePlain,
				RoundsRequired: 5,
				ChoiceCount:    6,
				Title:          "لعبة العجلة",
				Band:           models.ProgressBand{Start: 56, End: 76},
			},
			{
				Kind:           models.KindSpeechRecognition,
				DifficultyMode: models.ModePlain,
				RoundsRequired: 5,
				ChoiceCount:    1,
				Title:          "التعرف الصوتي",
				Band:           models.ProgressBand{Start: 76, End: 100},
			},
		},
		Timings: DefaultTimings(),
	}
}

// LoadPipeline reads a YAML pipeline file. Timings missing from the file
// keep their defaults.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}
	return ParsePipeline(data)
}

func ParsePipeline(data []byte) (*Pipeline, error) {
	p := Pipeline{Timings: DefaultTimings()}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// TotalRounds returns the number of rounds a full session plays.
func (p *Pipeline) TotalRounds() int {
	total := 0
	for _, a := range p.Activities {
		total += a.RoundsRequired
	}
	return total
}

// Validate checks the activity specs and that the progress bands partition
// 0-100 in order.
func (p *Pipeline) Validate() error {
	if len(p.Activities) == 0 {
		return fmt.Errorf("pipeline has no activities")
	}
	if p.InitialPercent < 0 || p.InitialPercent > 100 {
		return fmt.Errorf("initial_percent %d out of range", p.InitialPercent)
	}

	next := 0
	for i, a := range p.Activities {
		if !models.ValidActivityKinds[a.Kind] {
			return fmt.Errorf("activity %d: invalid kind %q", i+1, a.Kind)
		}
		if !models.ValidDifficultyModes[a.DifficultyMode] {
			return fmt.Errorf("activity %d: invalid difficulty_mode %q", i+1, a.DifficultyMode)
		}
		if a.RoundsRequired < 1 {
			return fmt.Errorf("activity %d: rounds_required must be at least 1", i+1)
		}
		if want := models.ExpectedChoiceCount(a.Kind); a.ChoiceCount != want {
			return fmt.Errorf("activity %d: %s needs choice_count %d, got %d", i+1, a.Kind, want, a.ChoiceCount)
		}
		if a.Band.Start != next {
			return fmt.Errorf("activity %d: band starts at %d, want %d", i+1, a.Band.Start, next)
		}
		if a.Band.End < a.Band.Start {
			return fmt.Errorf("activity %d: band end %d before start %d", i+1, a.Band.End, a.Band.Start)
		}
		next = a.Band.End
	}
	if next != 100 {
		return fmt.Errorf("progress bands end at %d, want 100", next)
	}
	return nil
}
