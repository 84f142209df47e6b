package models

type ActivityKind string

const (
	KindListening         ActivityKind = "listening"
	KindVisualMatch       ActivityKind = "visual_match"
	KindWheelSelect       ActivityKind = "wheel_select"
	KindSpeechRecognition ActivityKind = "speech_recognition"
)

var ValidActivityKinds = map[ActivityKind]bool{
	KindListening:         true,
	KindVisualMatch:       true,
	KindWheelSelect:       true,
	KindSpeechRecognition: true,
}

type DifficultyMode string

const (
	ModePlain          DifficultyMode = "plain"
	ModeEnlargedTarget DifficultyMode = "enlarged-target"
	ModeShiftedTarget  DifficultyMode = "shifted-target"
	ModeColorMatch     DifficultyMode = "color-match"
)

var ValidDifficultyModes = map[DifficultyMode]bool{
	ModePlain:          true,
	ModeEnlargedTarget: true,
	ModeShiftedTarget:  true,
	ModeColorMatch:     true,
}

// ProgressBand is the slice of the 0-100 progress bar owned by one activity.
type ProgressBand struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

func (b ProgressBand) Width() int {
	return b.End - b.Start
}

// ActivitySpec is the static definition of one pipeline stage.
type ActivitySpec struct {
	Kind           ActivityKind   `json:"kind" yaml:"kind"`
	DifficultyMode DifficultyMode `json:"difficulty_mode" yaml:"difficulty_mode"`
	RoundsRequired int            `json:"rounds_required" yaml:"rounds_required"`
	ChoiceCount    int            `json:"choice_count" yaml:"choice_count"`
	Title          string         `json:"title" yaml:"title"`
	Band           ProgressBand   `json:"band" yaml:"band"`
}

// NeedsContent reports whether the activity pulls asset pools from the
// content service before its first round.
func (s ActivitySpec) NeedsContent() bool {
	return s.Kind != KindListening
}

// ExpectedChoiceCount returns the fixed choice count for a kind, or 0 when
// the kind shows no choices.
func ExpectedChoiceCount(kind ActivityKind) int {
	switch kind {
	case KindVisualMatch:
		return 3
	case KindWheelSelect:
		return 6
	case KindSpeechRecognition:
		return 1
	default:
		return 0
	}
}
