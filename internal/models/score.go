package models

// ActivityRecord is the accumulated result of one finished activity.
type ActivityRecord struct {
	Kind             ActivityKind `json:"kind"`
	CorrectCount     int          `json:"correct_count"`
	AttemptsPerRound []int        `json:"attempts_per_round"`
}

// AppendRound logs a resolved round. Records are append-only.
func (r *ActivityRecord) AppendRound(attempts int) {
	r.AttemptsPerRound = append(r.AttemptsPerRound, attempts)
	r.CorrectCount++
}

// RoundsCompleted returns the number of rounds logged so far.
func (r ActivityRecord) RoundsCompleted() int {
	return len(r.AttemptsPerRound)
}

// SessionScoreReport is built once, when the session finishes.
type SessionScoreReport struct {
	TotalCorrect  int                    `json:"total_correct"`
	TotalRounds   int                    `json:"total_rounds"`
	PerActivity   map[int]ActivityRecord `json:"per_activity"`
	NarrativeText string                 `json:"narrative_text"`
}

// AudioComparison is the scoring service's verdict on one recording.
type AudioComparison struct {
	Match          bool     `json:"match"`
	Confidence     float64  `json:"confidence"`
	MFCCSimilarity *float64 `json:"mfcc_similarity,omitempty"`
	RefDuration    *float64 `json:"ref_duration,omitempty"`
	RecDuration    *float64 `json:"rec_duration,omitempty"`
}

// MatchThreshold is the confidence a match must exceed to count as correct.
const MatchThreshold = 70.0

// Correct reports whether the comparison counts as a correct answer.
// A confidence of exactly MatchThreshold is not enough.
func (c AudioComparison) Correct() bool {
	return c.Match && c.Confidence > MatchThreshold
}
