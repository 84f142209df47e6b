// Package narrative renders the human-readable side of a finished session:
// the attempt log stored with the training record, its title and
// description, and an optional specialist note.
package narrative

import (
	"fmt"
	"strings"

	"github.com/speech-steps/backend/internal/models"
)

var ordinals = []string{
	"الأول", "الثاني", "الثالث", "الرابع", "الخامس",
	"السادس", "السابع", "الثامن", "التاسع", "العاشر",
}

// Ordinal returns the Arabic ordinal for a 1-based position.
func Ordinal(n int) string {
	if n >= 1 && n <= len(ordinals) {
		return ordinals[n-1]
	}
	return fmt.Sprintf("%d", n)
}

// Render writes the attempt log: the overall score, then one block per
// activity in pipeline order with one line per round.
func Render(activities []models.ActivitySpec, report models.SessionScoreReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "النتيجة الكلية: %d من %d\n", report.TotalCorrect, report.TotalRounds)
	b.WriteString("المحاولات:")

	for i, spec := range activities {
		record, ok := report.PerActivity[i]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\nالنشاط %s (%s):", Ordinal(i+1), activityTitle(spec))
		for round, attempts := range record.AttemptsPerRound {
			fmt.Fprintf(&b, "\n  الجولة %d: %d محاولة", round+1, attempts)
		}
	}
	return b.String()
}

func activityTitle(spec models.ActivitySpec) string {
	if spec.Title != "" {
		return spec.Title
	}
	return string(spec.Kind)
}

// Title is the dimension, followed by the category when there is one.
func Title(topic models.SessionTopic) string {
	if topic.Category == "" {
		return topic.Dimension
	}
	return topic.Dimension + " - " + topic.Category
}

// Description lists the topic fields that are set, the attempt log and,
// when present, the specialist note.
func Description(topic models.SessionTopic, log, note string) string {
	var lines []string
	if topic.Category != "" {
		lines = append(lines, "البند: "+topic.Category)
	}
	if topic.Subcategory != "" {
		lines = append(lines, "التفاصيل: "+topic.Subcategory)
	}
	lines = append(lines, log)
	if note = strings.TrimSpace(note); note != "" {
		lines = append(lines, "ملاحظة الأخصائي: "+note)
	}
	return strings.Join(lines, "\n")
}

// TrainingRequest builds the persistence call for a finished session.
func TrainingRequest(topic models.SessionTopic, log, note string) models.CreateTrainingRequest {
	return models.CreateTrainingRequest{
		ParentID:    topic.OwnerID,
		Title:       Title(topic),
		Description: Description(topic, log, note),
	}
}
