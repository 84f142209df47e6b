package models

import "errors"

// ── Error Taxonomy ────────────────────────────────────────

var (
	// ErrContentUnavailable means a content-service call failed or returned
	// a non-success status. Callers proceed with whatever pools they have.
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrCaptureUnavailable means the microphone is absent or permission was
	// denied. The current speech round auto-succeeds.
	ErrCaptureUnavailable = errors.New("capture unavailable")

	// ErrScoringService means the audio comparison call failed. The attempt
	// counts as incorrect.
	ErrScoringService = errors.New("scoring service error")

	// ErrPersistence means the final save failed. Cleanup proceeds anyway.
	ErrPersistence = errors.New("persistence error")

	// ErrMissingTopic is the only fatal condition: the session was started
	// without a resolved topic.
	ErrMissingTopic = errors.New("missing session topic")
)

type ErrorResponse struct {
	Error string `json:"error"`
}
