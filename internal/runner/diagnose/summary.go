package diagnose

import (
	"time"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

// Summary aggregates a batch of request results.
type Summary struct {
	Total       int                     `json:"total"`
	Succeeded   int                     `json:"succeeded"`
	Failed      int                     `json:"failed"`
	SuccessRate float64                 `json:"success_rate"`
	AvgElapsed  time.Duration           `json:"avg_elapsed"`
	ByCategory  map[domain.Category]int `json:"by_category,omitempty"`
	BySeverity  map[domain.Severity]int `json:"by_severity,omitempty"`
}

// SeverityOrder lists severities from most to least urgent, for report
// ordering.
var SeverityOrder = []domain.Severity{
	domain.SeverityCritical,
	domain.SeverityHigh,
	domain.SeverityMedium,
	domain.SeverityLow,
}

// Summarize folds a batch of results into counts and rates.
func Summarize(results []domain.Result) Summary {
	s := Summary{
		Total:      len(results),
		ByCategory: make(map[domain.Category]int),
		BySeverity: make(map[domain.Severity]int),
	}

	var elapsed time.Duration
	for _, r := range results {
		elapsed += r.Elapsed
		if r.Success {
			s.Succeeded++
			continue
		}
		s.Failed++
		if r.Diagnosis != nil {
			s.ByCategory[r.Diagnosis.Category]++
			s.BySeverity[r.Diagnosis.Severity]++
		}
	}

	if s.Total > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.Total)
		s.AvgElapsed = elapsed / time.Duration(s.Total)
	}
	return s
}

// GroupBySeverity buckets failed results by diagnosis severity. Successful
// results are skipped.
func GroupBySeverity(results []domain.Result) map[domain.Severity][]domain.Result {
	out := make(map[domain.Severity][]domain.Result)
	for _, r := range results {
		if r.Success || r.Diagnosis == nil {
			continue
		}
		out[r.Diagnosis.Severity] = append(out[r.Diagnosis.Severity], r)
	}
	return out
}
