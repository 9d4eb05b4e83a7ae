package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Scarage1/API-Watch/internal/core/domain"
	"github.com/Scarage1/API-Watch/internal/suite"
)

func sampleSuite() *suite.Suite {
	return &suite.Suite{
		Name: "Smoke: Orders API",
		Tests: []suite.Case{
			{ID: "list", Name: "list orders", Method: "GET", Path: "/orders"},
			{ID: "create", Name: "create order", Method: "POST", Path: "/orders"},
			{ID: "auth", Method: "GET", Path: "/me"},
			{ID: "late", Method: "GET", Path: "/slow"},
		},
	}
}

func sampleCaseResults(s *suite.Suite) []suite.CaseResult {
	return []suite.CaseResult{
		{
			Case: s.Tests[0],
			Result: domain.Result{
				Method: "GET", URL: "https://api.test/orders",
				Success: true, StatusCode: 200, Attempts: 1,
				Elapsed: 120 * time.Millisecond,
			},
		},
		{
			Case: s.Tests[1],
			Result: domain.Result{
				Method: "POST", URL: "https://api.test/orders",
				StatusCode: 503, Attempts: 4,
				Elapsed:    2 * time.Second,
				Error:      "server returned 503",
				Diagnosis: &domain.Diagnosis{
					Issue:      "the server failed to process the request",
					Cause:      "upstream outage or overload",
					Suggestion: "retry later or check service status",
					Severity:   domain.SeverityHigh,
					Category:   domain.CategoryServer,
				},
			},
			Failures: []string{"request failed: server returned 503"},
		},
		{
			Case: s.Tests[2],
			Result: domain.Result{
				Method: "GET", URL: "https://api.test/me",
				Success: true, StatusCode: 200, Attempts: 1,
				Elapsed: 80 * time.Millisecond,
			},
			Failures: []string{`json path "user.id": expected 42, got 43`},
		},
		{Case: s.Tests[3], Skipped: true},
	}
}

func TestFromSuite(t *testing.T) {
	s := sampleSuite()
	rep := FromSuite("1.2.3", s, sampleCaseResults(s))

	assert.Equal(t, Tool, rep.Tool)
	assert.Equal(t, "1.2.3", rep.Version)
	assert.Equal(t, "Smoke: Orders API", rep.SuiteName)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 2, rep.Failed)
	assert.Equal(t, 1, rep.Skipped)
	assert.False(t, rep.OK())
	require.Len(t, rep.Entries, 4)

	first := rep.Entries[0]
	assert.Equal(t, "list", first.ID)
	assert.Equal(t, "list orders", first.Name)
	assert.True(t, first.Passed)
	assert.Equal(t, int64(120), first.ElapsedMS)

	// Skipped cases never executed, so method and URL fall back to the case.
	late := rep.Entries[3]
	assert.True(t, late.Skipped)
	assert.Equal(t, "GET", late.Method)
	assert.Equal(t, "/slow", late.URL)
	assert.Equal(t, "SKIP", late.Verdict())

	// Summary only counts executed cases.
	assert.Equal(t, 3, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.Failed)
}

func TestFromResults(t *testing.T) {
	results := []domain.Result{
		{ID: "a", Method: "GET", URL: "https://api.test/ok", Success: true, StatusCode: 200, Attempts: 1},
		{
			ID: "b", Method: "GET", URL: "https://api.test/missing",
			StatusCode: 404, Attempts: 1, Error: "server returned 404",
			Diagnosis: &domain.Diagnosis{Severity: domain.SeverityMedium, Category: domain.CategoryClient},
		},
	}

	rep := FromResults("dev", results)
	assert.Equal(t, "", rep.SuiteName)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Entries, 2)
	assert.Equal(t, []string{"server returned 404"}, rep.Entries[1].Failures)
}

func TestGroupFailuresOrder(t *testing.T) {
	entries := []Entry{
		{ID: "ok", Passed: true},
		{ID: "med", Diagnosis: &domain.Diagnosis{Severity: domain.SeverityMedium}},
		{ID: "assert-only"},
		{ID: "high", Diagnosis: &domain.Diagnosis{Severity: domain.SeverityHigh}},
		{ID: "skip", Skipped: true},
	}

	groups := groupFailures(entries)
	require.Len(t, groups, 3)
	assert.Equal(t, "high", groups[0].Label)
	assert.Equal(t, "medium", groups[1].Label)
	assert.Equal(t, "other", groups[2].Label)
	require.Len(t, groups[2].Entries, 1)
	assert.Equal(t, "assert-only", groups[2].Entries[0].ID)
}

func TestWriteJSONRoundTrip(t *testing.T) {
	s := sampleSuite()
	rep := FromSuite("1.2.3", s, sampleCaseResults(s))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rep.SuiteName, decoded.SuiteName)
	assert.Equal(t, rep.Failed, decoded.Failed)
	require.Len(t, decoded.Entries, 4)
	assert.Equal(t, "create order", decoded.Entries[1].Name)
	require.NotNil(t, decoded.Entries[1].Diagnosis)
	assert.Equal(t, domain.SeverityHigh, decoded.Entries[1].Diagnosis.Severity)
}

func TestWriteText(t *testing.T) {
	s := sampleSuite()
	rep := FromSuite("1.2.3", s, sampleCaseResults(s))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "SUITE Smoke: Orders API: 1 passed, 2 failed, 1 skipped")
	assert.Contains(t, out, "CASE")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "SKIP")
	assert.Contains(t, out, "[high]")
	assert.Contains(t, out, "retry later or check service status")
	assert.Contains(t, out, `json path "user.id"`)
}

func TestWriteHTML(t *testing.T) {
	s := sampleSuite()
	s.Name = "orders <script>"
	rep := FromSuite("1.2.3", s, sampleCaseResults(s))

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, rep))
	out := buf.String()

	assert.Contains(t, out, "orders &lt;script&gt;")
	assert.NotContains(t, out, "orders <script>")
	assert.Contains(t, out, "create order")
	assert.Contains(t, out, "upstream outage or overload")

	// Severity sections come before the assertion-only bucket.
	assert.Contains(t, out, ">high<")
	assert.Contains(t, out, ">other<")
	assert.Less(t, strings.Index(out, ">high<"), strings.Index(out, ">other<"))
}

func TestSave(t *testing.T) {
	s := sampleSuite()
	rep := FromSuite("1.2.3", s, sampleCaseResults(s))
	dir := t.TempDir()

	paths, err := Save(dir, []string{"json", "html"}, rep)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	base := filepath.Base(paths[0])
	assert.True(t, strings.HasPrefix(base, "smoke-orders-api_"), "got %q", base)
	assert.True(t, strings.HasSuffix(paths[0], ".json"))
	assert.True(t, strings.HasSuffix(paths[1], ".html"))

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}

	_, err = Save(dir, []string{"pdf"}, rep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf")
}

func TestSaveUnnamedReport(t *testing.T) {
	rep := FromResults("dev", []domain.Result{{Method: "GET", URL: "https://api.test", Success: true}})
	dir := t.TempDir()

	paths, err := Save(dir, []string{"json"}, rep)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.True(t, strings.HasPrefix(filepath.Base(paths[0]), "report_"))
}
