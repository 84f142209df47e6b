// Package media abstracts clip playback and microphone capture. Audio is a
// singleton resource: starting a clip or a recording always stops whatever
// is currently audible first.
package media

import (
	"context"
	"time"

	"github.com/speech-steps/backend/internal/models"
)

// Presenter receives declarative instructions for the presentation layer.
type Presenter interface {
	Present(instr models.Instruction)
}

// Recording is one captured microphone clip.
type Recording struct {
	CaptureID string
	Audio     []byte
}

type Gateway interface {
	// Play starts a clip, stopping any clip that is still playing.
	Play(clip string)
	// Stop silences the current clip, if any.
	Stop()
	// Capture records for the given window. It fails with
	// models.ErrCaptureUnavailable when the device is missing, permission is
	// denied or no recording arrives.
	Capture(ctx context.Context, window time.Duration) (Recording, error)
	// PlayRecording plays a captured clip back and returns once playback
	// ended or the safety timeout elapsed.
	PlayRecording(ctx context.Context, rec Recording) error
}
