package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/speech-steps/backend/internal/models"
)

// Remote drives the audio devices of the presentation client: playback and
// capture are instructions sent down the presentation channel, and the
// client's answers come back through Deliver.
type Remote struct {
	out            Presenter
	captureGrace   time.Duration
	playbackSafety time.Duration

	mu      sync.Mutex
	playing string
	waiters map[string]chan models.InputEvent
}

func NewRemote(out Presenter, captureGrace, playbackSafety time.Duration) *Remote {
	return &Remote{
		out:            out,
		captureGrace:   captureGrace,
		playbackSafety: playbackSafety,
		waiters:        make(map[string]chan models.InputEvent),
	}
}

func (r *Remote) Play(clip string) {
	r.switchTo(clip)
	r.out.Present(models.Instruction{Kind: models.InstrPlayClip, Path: clip})
}

func (r *Remote) Stop() {
	r.switchTo("")
}

// switchTo records clip as playing and silences the previous one. The
// instruction is written after r.mu is released so a slow socket never
// holds up Deliver.
func (r *Remote) switchTo(clip string) {
	r.mu.Lock()
	previous := r.playing
	r.playing = clip
	r.mu.Unlock()

	if previous != "" {
		r.out.Present(models.Instruction{Kind: models.InstrStopClip, Path: previous})
	}
}

func (r *Remote) Capture(ctx context.Context, window time.Duration) (Recording, error) {
	r.Stop()

	id := uuid.NewString()
	ch := r.register(id)
	defer r.unregister(id)

	r.out.Present(models.Instruction{
		Kind:       models.InstrStartCapture,
		CaptureID:  id,
		DurationMS: window.Milliseconds(),
	})

	timer := time.NewTimer(window + r.captureGrace)
	defer timer.Stop()

	for {
		select {
		case ev := <-ch:
			switch ev.Kind {
			case models.InputRecording:
				if len(ev.Audio) == 0 {
					return Recording{}, fmt.Errorf("%w: empty recording", models.ErrCaptureUnavailable)
				}
				return Recording{CaptureID: id, Audio: ev.Audio}, nil
			case models.InputCaptureUnavailable:
				return Recording{}, fmt.Errorf("%w: %s", models.ErrCaptureUnavailable, ev.Reason)
			}
		case <-timer.C:
			return Recording{}, fmt.Errorf("%w: no recording within %v", models.ErrCaptureUnavailable, window+r.captureGrace)
		case <-ctx.Done():
			return Recording{}, ctx.Err()
		}
	}
}

func (r *Remote) PlayRecording(ctx context.Context, rec Recording) error {
	ch := r.register(rec.CaptureID)
	defer r.unregister(rec.CaptureID)

	r.switchTo("recording:" + rec.CaptureID)
	r.out.Present(models.Instruction{Kind: models.InstrPlayRecording, CaptureID: rec.CaptureID})
	defer r.Stop()

	timer := time.NewTimer(r.playbackSafety)
	defer timer.Stop()

	for {
		select {
		case ev := <-ch:
			if ev.Kind == models.InputPlaybackEnded {
				return nil
			}
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Deliver routes a client answer to the capture or playback waiting for it.
// Answers nobody waits for are dropped and reported as undelivered.
func (r *Remote) Deliver(ev models.InputEvent) bool {
	r.mu.Lock()
	ch, ok := r.waiters[ev.CaptureID]
	r.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}

func (r *Remote) register(id string) chan models.InputEvent {
	ch := make(chan models.InputEvent, 1)
	r.mu.Lock()
	r.waiters[id] = ch
	r.mu.Unlock()
	return ch
}

func (r *Remote) unregister(id string) {
	r.mu.Lock()
	delete(r.waiters, id)
	r.mu.Unlock()
}
