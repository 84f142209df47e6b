package narrative

import (
	"fmt"
	"strings"

	"github.com/speech-steps/backend/internal/models"
)

func NoteSystemPrompt() string {
	return `You are a speech and language therapist reviewing a child's vocabulary training session.
You receive the target word, the activities in the order they were played and the number of attempts the child needed in every round.

Write a short note for the parent, in Arabic, of at most three sentences:
- name the activity where the child struggled most, if any
- name the activity where the child was strongest
- suggest one concrete thing to practice at home

Return the note text only. No headings, no lists, no markdown.`
}

// BuildNoteUserPrompt describes the session to the note writer.
func BuildNoteUserPrompt(topic models.SessionTopic, activities []models.ActivitySpec, report models.SessionScoreReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target word: %s (%s)\n", topic.Word(), models.DisplayName(topic.Word()))
	if topic.Category != "" {
		fmt.Fprintf(&b, "Category: %s (%s)\n", topic.Category, models.DisplayName(topic.Category))
	}
	fmt.Fprintf(&b, "Score: %d of %d rounds\n\n", report.TotalCorrect, report.TotalRounds)

	for i, spec := range activities {
		record, ok := report.PerActivity[i]
		if !ok {
			continue
		}
		attempts := make([]string, len(record.AttemptsPerRound))
		for j, n := range record.AttemptsPerRound {
			attempts[j] = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(&b, "%d. %s [%s]: attempts per round %s\n",
			i+1, activityTitle(spec), spec.Kind, strings.Join(attempts, ", "))
	}
	return b.String()
}
