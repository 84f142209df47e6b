package models

import "strings"

// SessionTopic identifies what a session trains. It is resolved before the
// orchestrator starts and never changes afterwards.
type SessionTopic struct {
	Dimension   string `json:"dimension"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	OwnerID     int64  `json:"owner_id"`
}

// Word returns the most specific label of the topic: the subcategory when
// present, then the category, then the dimension.
func (t SessionTopic) Word() string {
	for _, s := range []string{t.Subcategory, t.Category, t.Dimension} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Resolved reports whether the topic names anything to train.
func (t *SessionTopic) Resolved() bool {
	return t != nil && t.Word() != ""
}
