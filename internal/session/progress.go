package session

import "github.com/speech-steps/backend/internal/models"

// Progress is the session's completion cursor. It never moves backwards and
// holds at 99 until the session's record has been handed to persistence.
type Progress struct {
	percent  int
	complete bool
}

func NewProgress(initial int) *Progress {
	p := &Progress{}
	p.Advance(initial)
	return p
}

func (p *Progress) Percent() int {
	return p.percent
}

// Advance moves the cursor to pct and reports whether it moved.
func (p *Progress) Advance(pct int) bool {
	if pct < 0 {
		pct = 0
	}
	if !p.complete && pct > 99 {
		pct = 99
	}
	if pct > 100 {
		pct = 100
	}
	if pct <= p.percent {
		return false
	}
	p.percent = pct
	return true
}

// Complete releases the final step to 100.
func (p *Progress) Complete() bool {
	p.complete = true
	return p.Advance(100)
}

// BandPercent places done of total steps inside a band.
func BandPercent(band models.ProgressBand, done, total int) int {
	if total <= 0 {
		return band.End
	}
	if done > total {
		done = total
	}
	if done < 0 {
		done = 0
	}
	return band.Start + band.Width()*done/total
}
