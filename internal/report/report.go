// Package report renders run results as JSON and HTML files and as terminal
// text.
package report

import (
	"strconv"
	"time"

	"github.com/Scarage1/API-Watch/internal/core/domain"
	"github.com/Scarage1/API-Watch/internal/runner/diagnose"
	"github.com/Scarage1/API-Watch/internal/suite"
)

// Tool is the name stamped into generated reports.
const Tool = "apiwatch"

// Entry is one request in a report.
type Entry struct {
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Passed     bool              `json:"passed"`
	Skipped    bool              `json:"skipped,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	Attempts   int               `json:"attempts"`
	ElapsedMS  int64             `json:"elapsed_ms"`
	Failures   []string          `json:"failures,omitempty"`
	Diagnosis  *domain.Diagnosis `json:"diagnosis,omitempty"`
}

// Report is a complete rendered run.
type Report struct {
	Tool        string           `json:"tool"`
	Version     string           `json:"version"`
	GeneratedAt time.Time        `json:"generated_at"`
	SuiteName   string           `json:"suite,omitempty"`
	Passed      int              `json:"passed"`
	Failed      int              `json:"failed"`
	Skipped     int              `json:"skipped,omitempty"`
	Summary     diagnose.Summary `json:"summary"`
	Entries     []Entry          `json:"results"`
}

// OK reports whether nothing failed.
func (r Report) OK() bool { return r.Failed == 0 }

// Label names the entry for display.
func (e Entry) Label() string {
	if e.Name != "" {
		return e.Name
	}
	if e.ID != "" {
		return e.ID
	}
	return "-"
}

// StatusText renders the status code, or a dash when no response arrived.
func (e Entry) StatusText() string {
	if e.StatusCode == 0 {
		return "-"
	}
	return strconv.Itoa(e.StatusCode)
}

// Verdict is the single-word outcome used in tables.
func (e Entry) Verdict() string {
	switch {
	case e.Skipped:
		return "SKIP"
	case e.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

// FromResults builds a report for ad-hoc requests.
func FromResults(version string, results []domain.Result) Report {
	rep := Report{
		Tool:        Tool,
		Version:     version,
		GeneratedAt: time.Now().UTC(),
		Summary:     diagnose.Summarize(results),
	}

	for _, res := range results {
		e := Entry{
			ID:         res.ID,
			Method:     res.Method,
			URL:        res.URL,
			Passed:     res.Success,
			StatusCode: res.StatusCode,
			Attempts:   res.Attempts,
			ElapsedMS:  res.Elapsed.Milliseconds(),
			Diagnosis:  res.Diagnosis,
		}
		if res.Success {
			rep.Passed++
		} else {
			rep.Failed++
			if res.Error != "" {
				e.Failures = append(e.Failures, res.Error)
			}
		}
		rep.Entries = append(rep.Entries, e)
	}
	return rep
}

// FromSuite builds a report for a suite run. Pass and fail follow the case
// verdicts, which fold in expectation checks.
func FromSuite(version string, s *suite.Suite, caseResults []suite.CaseResult) Report {
	rep := Report{
		Tool:        Tool,
		Version:     version,
		GeneratedAt: time.Now().UTC(),
		SuiteName:   s.Name,
		Summary:     diagnose.Summarize(suite.DomainResults(caseResults)),
	}

	for _, cr := range caseResults {
		e := Entry{
			ID:         cr.Case.ID,
			Name:       cr.Case.DisplayName(),
			Method:     cr.Result.Method,
			URL:        cr.Result.URL,
			Passed:     cr.Passed(),
			Skipped:    cr.Skipped,
			StatusCode: cr.Result.StatusCode,
			Attempts:   cr.Result.Attempts,
			ElapsedMS:  cr.Result.Elapsed.Milliseconds(),
			Failures:   cr.Failures,
			Diagnosis:  cr.Result.Diagnosis,
		}
		if e.Method == "" {
			e.Method = cr.Case.Method
		}
		if e.URL == "" {
			e.URL = cr.Case.Path
		}

		switch {
		case cr.Skipped:
			rep.Skipped++
		case cr.Passed():
			rep.Passed++
		default:
			rep.Failed++
		}
		rep.Entries = append(rep.Entries, e)
	}
	return rep
}

// severityGroup buckets failed entries for rendering, most urgent first.
type severityGroup struct {
	Label   string
	Entries []Entry
}

func groupFailures(entries []Entry) []severityGroup {
	byLabel := make(map[string][]Entry)
	for _, e := range entries {
		if e.Passed || e.Skipped {
			continue
		}
		label := "other"
		if e.Diagnosis != nil {
			label = string(e.Diagnosis.Severity)
		}
		byLabel[label] = append(byLabel[label], e)
	}

	var groups []severityGroup
	for _, sev := range diagnose.SeverityOrder {
		if es, ok := byLabel[string(sev)]; ok {
			groups = append(groups, severityGroup{Label: string(sev), Entries: es})
			delete(byLabel, string(sev))
		}
	}
	if es, ok := byLabel["other"]; ok {
		groups = append(groups, severityGroup{Label: "other", Entries: es})
	}
	return groups
}
