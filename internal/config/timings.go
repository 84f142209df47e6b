package config

import "time"

// Timings holds every fixed delay of the session. User choice input is
// never timed out; only mechanical steps are.
type Timings struct {
	RepetitionDelay   time.Duration `json:"repetition_delay" yaml:"repetition_delay"`
	FirstRepetitions  int           `json:"first_repetitions" yaml:"first_repetitions"`
	SecondRepetitions int           `json:"second_repetitions" yaml:"second_repetitions"`
	RevealDelay       time.Duration `json:"reveal_delay" yaml:"reveal_delay"`
	ListeningOutro    time.Duration `json:"listening_outro" yaml:"listening_outro"`

	SuccessFeedback time.Duration `json:"success_feedback" yaml:"success_feedback"`
	VisualCooldown  time.Duration `json:"visual_cooldown" yaml:"visual_cooldown"`
	WheelCooldown   time.Duration `json:"wheel_cooldown" yaml:"wheel_cooldown"`

	SpeechStartDelay time.Duration `json:"speech_start_delay" yaml:"speech_start_delay"`
	PromptDuration   time.Duration `json:"prompt_duration" yaml:"prompt_duration"`
	PromptGap        time.Duration `json:"prompt_gap" yaml:"prompt_gap"`
	CaptureWindow    time.Duration `json:"capture_window" yaml:"capture_window"`
	CaptureGrace     time.Duration `json:"capture_grace" yaml:"capture_grace"`
	PlaybackSafety   time.Duration `json:"playback_safety" yaml:"playback_safety"`
	SkipFeedback     time.Duration `json:"skip_feedback" yaml:"skip_feedback"`
	RetryDelay       time.Duration `json:"retry_delay" yaml:"retry_delay"`

	NoteTimeout   time.Duration `json:"note_timeout" yaml:"note_timeout"`
	NavigateDelay time.Duration `json:"navigate_delay" yaml:"navigate_delay"`
}

func DefaultTimings() Timings {
	return Timings{
		RepetitionDelay:   500 * time.Millisecond,
		FirstRepetitions:  6,
		SecondRepetitions: 8,
		RevealDelay:       1500 * time.Millisecond,
		ListeningOutro:    1500 * time.Millisecond,

		SuccessFeedback: 1500 * time.Millisecond,
		VisualCooldown:  600 * time.Millisecond,
		WheelCooldown:   1000 * time.Millisecond,

		SpeechStartDelay: 300 * time.Millisecond,
		PromptDuration:   1500 * time.Millisecond,
		PromptGap:        500 * time.Millisecond,
		CaptureWindow:    3 * time.Second,
		CaptureGrace:     10 * time.Second,
		PlaybackSafety:   5 * time.Second,
		SkipFeedback:     1200 * time.Millisecond,
		RetryDelay:       1500 * time.Millisecond,

		NoteTimeout:   15 * time.Second,
		NavigateDelay: 2 * time.Second,
	}
}

// Instant returns timings with every delay zeroed and the repetition counts
// kept, for driving sessions without waiting.
func Instant() Timings {
	d := DefaultTimings()
	return Timings{
		FirstRepetitions:  d.FirstRepetitions,
		SecondRepetitions: d.SecondRepetitions,
		CaptureGrace:      time.Second,
		PlaybackSafety:    time.Second,
		NoteTimeout:       time.Second,
	}
}
