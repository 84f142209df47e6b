package models

// NoSlot marks the absence of a previous correct slot.
const NoSlot = -1

// PlaceholderAsset is displayed when no content could be resolved.
const PlaceholderAsset = ""

// Asset is a displayable image together with the subcategory folder it
// lives in.
type Asset struct {
	Name        string `json:"name"`
	Subcategory string `json:"subcategory"`
}

// Candidate is one choice shown in a round.
type Candidate struct {
	Asset
	IsTarget bool `json:"is_target"`
}

// ContentPool holds the assets last fetched for an activity.
type ContentPool struct {
	Subcategory string   `json:"subcategory"`
	Targets     []string `json:"targets"`
	Distractors []Asset  `json:"distractors"`
}

// RoundState is recreated for every round.
type RoundState struct {
	ID                  string         `json:"id"`
	Number              int            `json:"number"`
	AttemptsThisRound   int            `json:"attempts_this_round"`
	Candidates          []Candidate    `json:"candidates"`
	CorrectSlot         int            `json:"correct_slot"`
	PreviousCorrectSlot int            `json:"previous_correct_slot"`
	Mode                DifficultyMode `json:"mode"`
	TargetColor         string         `json:"target_color,omitempty"`
	DistractorColor     string         `json:"distractor_color,omitempty"`
}

// Target returns the round's target candidate.
func (r RoundState) Target() Candidate {
	if r.CorrectSlot >= 0 && r.CorrectSlot < len(r.Candidates) {
		return r.Candidates[r.CorrectSlot]
	}
	return Candidate{}
}

// TargetCount returns how many candidates are flagged as the target.
func (r RoundState) TargetCount() int {
	n := 0
	for _, c := range r.Candidates {
		if c.IsTarget {
			n++
		}
	}
	return n
}
