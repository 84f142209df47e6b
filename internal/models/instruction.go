package models

// ── Presentation Channel ──────────────────────────────────
//
// Instructions flow from the session to the presentation layer; input
// events flow back. Both are plain JSON on the wire.

type InstructionKind string

const (
	InstrSessionStarted  InstructionKind = "session_started"
	InstrProgress        InstructionKind = "progress"
	InstrPlayClip        InstructionKind = "play_clip"
	InstrStopClip        InstructionKind = "stop_clip"
	InstrShowImage       InstructionKind = "show_image"
	InstrShowRound       InstructionKind = "show_round"
	InstrEnableInput     InstructionKind = "enable_input"
	InstrDisableInput    InstructionKind = "disable_input"
	InstrMarkChoice      InstructionKind = "mark_choice"
	InstrStatus          InstructionKind = "status"
	InstrStartCapture    InstructionKind = "start_capture"
	InstrPlayRecording   InstructionKind = "play_recording"
	InstrSpeechResult    InstructionKind = "speech_result"
	InstrSessionFinished InstructionKind = "session_finished"
	InstrClearTopic      InstructionKind = "clear_topic"
	InstrNavigateBack    InstructionKind = "navigate_back"
)

type Emphasis string

const (
	EmphasisNone     Emphasis = "none"
	EmphasisEnlarged Emphasis = "enlarged"
	EmphasisShifted  Emphasis = "shifted"
)

// DisplaySlot is one clickable position of a round.
type DisplaySlot struct {
	Index     int      `json:"index"`
	ImagePath string   `json:"image_path"`
	Emphasis  Emphasis `json:"emphasis"`
}

type Instruction struct {
	Kind         InstructionKind     `json:"kind"`
	SessionID    string              `json:"session_id,omitempty"`
	Activity     int                 `json:"activity"`
	ActivityKind ActivityKind        `json:"activity_kind,omitempty"`
	RoundID      string              `json:"round_id,omitempty"`
	Round        int                 `json:"round,omitempty"`
	Percent      int                 `json:"percent,omitempty"`
	Path         string              `json:"path,omitempty"`
	Slots        []DisplaySlot       `json:"slots,omitempty"`
	Slot         *int                `json:"slot,omitempty"`
	Correct      *bool               `json:"correct,omitempty"`
	Text         string              `json:"text,omitempty"`
	CaptureID    string              `json:"capture_id,omitempty"`
	DurationMS   int64               `json:"duration_ms,omitempty"`
	Comparison   *AudioComparison    `json:"comparison,omitempty"`
	Report       *SessionScoreReport `json:"report,omitempty"`
}

type InputKind string

const (
	InputSelect             InputKind = "select"
	InputRecording          InputKind = "recording"
	InputCaptureUnavailable InputKind = "capture_unavailable"
	InputPlaybackEnded      InputKind = "playback_ended"
)

type InputEvent struct {
	Kind      InputKind `json:"kind"`
	RoundID   string    `json:"round_id,omitempty"`
	Slot      int       `json:"slot"`
	CaptureID string    `json:"capture_id,omitempty"`
	Audio     []byte    `json:"audio,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// ForGateway reports whether the event belongs to the audio/capture
// gateway rather than the round loop.
func (e InputEvent) ForGateway() bool {
	switch e.Kind {
	case InputRecording, InputCaptureUnavailable, InputPlaybackEnded:
		return true
	}
	return false
}

func IntPtr(v int) *int {
	return &v
}

func BoolPtr(v bool) *bool {
	return &v
}
