package session

import "github.com/speech-steps/backend/internal/models"

// BuildReport totals the records of a finished pipeline. The denominator is
// the rounds the pipeline requires, not the rounds played.
func BuildReport(activities []models.ActivitySpec, records map[int]models.ActivityRecord) models.SessionScoreReport {
	report := models.SessionScoreReport{
		PerActivity: make(map[int]models.ActivityRecord, len(records)),
	}
	for i, spec := range activities {
		report.TotalRounds += spec.RoundsRequired
		if rec, ok := records[i]; ok {
			report.TotalCorrect += rec.CorrectCount
			report.PerActivity[i] = rec
		}
	}
	return report
}
